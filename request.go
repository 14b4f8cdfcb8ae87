package beanstalkt

import "fmt"

// request describes a single protocol command. It is immutable once
// submitted to the pipeline.
type request struct {
	// op is the protocol verb, used for error reporting, metrics and
	// session tracking.
	op string
	// cmd is the full command line, without the trailing CRLF.
	cmd string
	// body is an optional payload written after the command line. Only put
	// uses it.
	body []byte
	// ok lists the status tokens that mean success for this verb and err
	// the tokens that mean a recognized, non-fatal failure.
	ok  []string
	err []string
	// readValue marks replies that carry a single scalar after the status
	// token, readBody replies that carry a length-prefixed body, and
	// parseYAML bodies that must go through the YAML decoder. At most one
	// of readValue and readBody is set; parseYAML implies readBody.
	readValue bool
	readBody  bool
	parseYAML bool
	// tube is the tube named by a use, watch or ignore command. The
	// session tracks these on confirmed success.
	tube string
}

// response is the decoded server reply to a single request.
type response struct {
	status string
	values []string
	jobID  uint64      // job id, when the reply carries a job body
	body   []byte      // raw body bytes, nil unless readBody
	yaml   interface{} // decoded YAML body, nil unless parseYAML
}

// value returns the scalar payload of a readValue reply.
func (resp *response) value() string {
	if len(resp.values) == 0 {
		return ""
	}

	return resp.values[0]
}

func useRequest(tube string) *request {
	return &request{
		op:        "use",
		cmd:       "use " + tube,
		ok:        []string{"USING"},
		readValue: true,
		tube:      tube,
	}
}

func watchRequest(tube string) *request {
	return &request{
		op:        "watch",
		cmd:       "watch " + tube,
		ok:        []string{"WATCHING"},
		readValue: true,
		tube:      tube,
	}
}

func ignoreRequest(tube string) *request {
	return &request{
		op:        "ignore",
		cmd:       "ignore " + tube,
		ok:        []string{"WATCHING"},
		err:       []string{"NOT_IGNORED"},
		readValue: true,
		tube:      tube,
	}
}

func statsRequest() *request {
	return &request{
		op:        "stats",
		cmd:       "stats",
		ok:        []string{"OK"},
		readBody:  true,
		parseYAML: true,
	}
}

func statsTubeRequest(tube string) *request {
	return &request{
		op:        "stats-tube",
		cmd:       "stats-tube " + tube,
		ok:        []string{"OK"},
		err:       []string{"NOT_FOUND"},
		readBody:  true,
		parseYAML: true,
	}
}

func statsJobRequest(id uint64) *request {
	return &request{
		op:        "stats-job",
		cmd:       fmt.Sprintf("stats-job %d", id),
		ok:        []string{"OK"},
		err:       []string{"NOT_FOUND"},
		readBody:  true,
		parseYAML: true,
	}
}
