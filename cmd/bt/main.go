// bt is a command line client for beanstalkd, useful for poking at a work
// queue: inserting test jobs, reserving and finishing them, peeking and
// kicking, and inspecting server and tube statistics.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/nephics/beanstalkt"
)

var (
	help     = flag.Bool("help", false, "Display usage information")
	host     = flag.String("host", "localhost", "The host of the beanstalk server")
	port     = flag.Int("port", 11300, "The port of the beanstalk server")
	use      = flag.String("use", "default", "The tube to put jobs into, or to peek at")
	watch    = flag.String("watch", "", "Comma-separated tubes to watch when reserving")
	priority = flag.Uint("priority", uint(beanstalkt.DefaultPriority), "The job priority for put, release and bury")
	delay    = flag.Duration("delay", 0, "The delay before a put or released job becomes ready")
	ttr      = flag.Duration("ttr", beanstalkt.DefaultTTR, "The time-to-run of a put job")
	timeout  = flag.Duration("timeout", 5*time.Second, "The reserve timeout")
)

var (
	keyColor   = color.New(color.FgGreen)
	tubeColor  = color.New(color.FgCyan, color.Bold)
	errorColor = color.New(color.FgRed)
)

func usage() {
	fmt.Printf("Usage: %s [flags] command [args]\n\n", os.Args[0])
	fmt.Println("A command line client for beanstalkd.")
	fmt.Println("\nFlags:")
	flag.PrintDefaults()

	fmt.Println("\nCommands:")
	fmt.Println("  put BODY                      Insert a job into the used tube")
	fmt.Println("  reserve [delete|release|bury] Reserve a job and optionally finish it")
	fmt.Println("  peek ID                       Peek at the job with the given id")
	fmt.Println("  peek-ready                    Peek at the next ready job in the used tube")
	fmt.Println("  peek-delayed                  Peek at the next delayed job in the used tube")
	fmt.Println("  peek-buried                   Peek at the next buried job in the used tube")
	fmt.Println("  kick BOUND                    Kick up to BOUND jobs back to ready")
	fmt.Println("  kick-job ID                   Kick the job with the given id back to ready")
	fmt.Println("  stats [TUBE]                  Print server statistics, or a tube's")
	fmt.Println("  stats-job ID                  Print a job's statistics")
	fmt.Println("  tubes                         List all tubes with their job counts")
	fmt.Println("  pause TUBE DELAY              Pause reservations from a tube")
	fmt.Println("")
}

func fatal(format string, args ...interface{}) {
	errorColor.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// printMapping prints a stats mapping with sorted, colorized keys.
func printMapping(mapping map[string]interface{}) {
	keys := make([]string, 0, len(mapping))
	for key := range mapping {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		keyColor.Printf("%s: ", key)
		fmt.Println(mapping[key])
	}
}

func printJob(job *beanstalkt.Job) {
	keyColor.Print("id: ")
	fmt.Println(job.ID)
	keyColor.Print("body: ")
	fmt.Println(string(job.Body))
}

func argUint(n int, name string) uint64 {
	id, err := strconv.ParseUint(flag.Arg(n), 10, 64)
	if err != nil {
		fatal("%s: invalid %s", flag.Arg(n), name)
	}

	return id
}

// setup switches the client to the used tube and adjusts the watch list
// according to the -use and -watch flags.
func setup(ctx context.Context, client *beanstalkt.Client, forReserve bool) {
	if !forReserve {
		if *use != "default" {
			if _, err := client.Use(ctx, *use); err != nil {
				fatal("Unable to use tube %s: %s", *use, err)
			}
		}

		return
	}

	if *watch == "" {
		return
	}

	tubes := strings.Split(*watch, ",")
	for _, tube := range tubes {
		if _, err := client.Watch(ctx, tube); err != nil {
			fatal("Unable to watch tube %s: %s", tube, err)
		}
	}

	if !includes(tubes, "default") {
		if _, err := client.Ignore(ctx, "default"); err != nil {
			fatal("Unable to ignore the default tube: %s", err)
		}
	}
}

func includes(a []string, s string) bool {
	for _, e := range a {
		if e == s {
			return true
		}
	}

	return false
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *help || flag.Arg(0) == "" {
		flag.Usage()
		return
	}

	client := beanstalkt.NewClient(beanstalkt.Config{
		Host:     *host,
		Port:     *port,
		ErrorLog: log.New(os.Stderr, "ERROR: ", log.LstdFlags),
	})

	ctx := context.Background()
	if err := client.Connect(ctx); err != nil {
		fatal("Unable to connect to %s:%d: %s", *host, *port, err)
	}
	defer client.Close()

	switch flag.Arg(0) {
	case "put":
		if flag.Arg(1) == "" {
			fatal("put needs a job body")
		}

		setup(ctx, client, false)
		id, err := client.Put(ctx, []byte(flag.Arg(1)), beanstalkt.PutParams{
			Priority: uint32(*priority),
			Delay:    *delay,
			TTR:      *ttr,
		})
		if err != nil {
			fatal("Unable to put job: %s", err)
		}

		fmt.Println(id)

	case "reserve":
		setup(ctx, client, true)
		job, err := client.ReserveWithTimeout(ctx, *timeout)
		if err != nil {
			fatal("Unable to reserve a job: %s", err)
		}

		printJob(job)

		switch flag.Arg(1) {
		case "":
		case "delete":
			err = client.Delete(ctx, job.ID)
		case "release":
			err = client.Release(ctx, job.ID, uint32(*priority), *delay)
		case "bury":
			err = client.Bury(ctx, job.ID, uint32(*priority))
		default:
			fatal("%s: invalid reserve action", flag.Arg(1))
		}
		if err != nil {
			fatal("Unable to %s job %d: %s", flag.Arg(1), job.ID, err)
		}

	case "peek":
		job, err := client.Peek(ctx, argUint(1, "job id"))
		if err != nil {
			fatal("Unable to peek: %s", err)
		}

		printJob(job)

	case "peek-ready", "peek-delayed", "peek-buried":
		setup(ctx, client, false)

		var job *beanstalkt.Job
		var err error
		switch flag.Arg(0) {
		case "peek-ready":
			job, err = client.PeekReady(ctx)
		case "peek-delayed":
			job, err = client.PeekDelayed(ctx)
		case "peek-buried":
			job, err = client.PeekBuried(ctx)
		}
		if err != nil {
			fatal("Unable to peek in tube %s: %s", *use, err)
		}

		printJob(job)

	case "kick":
		setup(ctx, client, false)
		count, err := client.Kick(ctx, int(argUint(1, "bound")))
		if err != nil {
			fatal("Unable to kick jobs: %s", err)
		}

		fmt.Printf("Kicked %d jobs in tube %s\n", count, *use)

	case "kick-job":
		err := client.KickJob(ctx, argUint(1, "job id"))
		if err != nil {
			fatal("Unable to kick job: %s", err)
		}

	case "stats":
		var mapping map[string]interface{}
		var err error
		if flag.Arg(1) == "" {
			mapping, err = client.Stats(ctx)
		} else {
			mapping, err = client.StatsTube(ctx, flag.Arg(1))
		}
		if err != nil {
			fatal("Unable to fetch stats: %s", err)
		}

		printMapping(mapping)

	case "stats-job":
		mapping, err := client.StatsJob(ctx, argUint(1, "job id"))
		if err != nil {
			fatal("Unable to fetch job stats: %s", err)
		}

		printMapping(mapping)

	case "tubes":
		names, err := client.ListTubes(ctx)
		if err != nil {
			fatal("Unable to list tubes: %s", err)
		}
		sort.Strings(names)

		for _, name := range names {
			stats, err := client.TubeStats(ctx, name)
			if err != nil {
				fatal("Unable to fetch stats for tube %s: %s", name, err)
			}

			tubeColor.Println(name)
			keyColor.Print("  ready: ")
			fmt.Println(stats.CurrentJobsReady)
			keyColor.Print("  delayed: ")
			fmt.Println(stats.CurrentJobsDelayed)
			keyColor.Print("  reserved: ")
			fmt.Println(stats.CurrentJobsReserved)
			keyColor.Print("  buried: ")
			fmt.Println(stats.CurrentJobsBuried)
		}

	case "pause":
		if flag.Arg(1) == "" || flag.Arg(2) == "" {
			fatal("pause needs a tube name and a delay")
		}

		pause, err := time.ParseDuration(flag.Arg(2))
		if err != nil {
			fatal("%s: invalid delay", flag.Arg(2))
		}

		if err = client.PauseTube(ctx, flag.Arg(1), pause); err != nil {
			fatal("Unable to pause tube %s: %s", flag.Arg(1), err)
		}

	default:
		fmt.Fprintf(os.Stderr, "%s: invalid command\n", flag.Arg(0))
		flag.Usage()
		os.Exit(1)
	}
}
