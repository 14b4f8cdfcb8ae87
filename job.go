package beanstalkt

import "time"

// DefaultPriority is the job priority used when the caller does not care
// about job ordering. Lower values take precedence.
const DefaultPriority uint32 = 1 << 31

// DefaultTTR is the time-to-run assigned to jobs that are put without an
// explicit TTR.
const DefaultTTR = 120 * time.Second

// Job is a beanstalk job, as returned by the reserve and peek commands. The
// id is assigned by the server and is purely referential on the client
// side.
type Job struct {
	ID   uint64
	Body []byte
}

// PutParams describe the priority, delay and time-to-run of a put request.
// A zero TTR is replaced with DefaultTTR.
type PutParams struct {
	Priority uint32
	Delay    time.Duration
	TTR      time.Duration
}
