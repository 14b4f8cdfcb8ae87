package beanstalkt

import (
	"context"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// ServerStats describe the commonly used fields of the stats reply in typed
// form. Use Stats for the full mapping.
type ServerStats struct {
	CurrentJobsUrgent   int64  `yaml:"current-jobs-urgent"`
	CurrentJobsReady    int64  `yaml:"current-jobs-ready"`
	CurrentJobsReserved int64  `yaml:"current-jobs-reserved"`
	CurrentJobsDelayed  int64  `yaml:"current-jobs-delayed"`
	CurrentJobsBuried   int64  `yaml:"current-jobs-buried"`
	TotalJobs           int64  `yaml:"total-jobs"`
	CurrentTubes        int64  `yaml:"current-tubes"`
	CurrentConnections  int64  `yaml:"current-connections"`
	CurrentProducers    int64  `yaml:"current-producers"`
	CurrentWorkers      int64  `yaml:"current-workers"`
	Uptime              int64  `yaml:"uptime"`
	Version             string `yaml:"version"`
}

// TubeStats describe the statistics of a single tube in typed form. Use
// StatsTube for the full mapping.
type TubeStats struct {
	Name                string `yaml:"name"`
	CurrentJobsUrgent   int64  `yaml:"current-jobs-urgent"`
	CurrentJobsReady    int64  `yaml:"current-jobs-ready"`
	CurrentJobsReserved int64  `yaml:"current-jobs-reserved"`
	CurrentJobsDelayed  int64  `yaml:"current-jobs-delayed"`
	CurrentJobsBuried   int64  `yaml:"current-jobs-buried"`
	TotalJobs           int64  `yaml:"total-jobs"`
	CurrentUsing        int64  `yaml:"current-using"`
	CurrentWatching     int64  `yaml:"current-watching"`
	CurrentWaiting      int64  `yaml:"current-waiting"`
	Pause               int64  `yaml:"pause"`
	PauseTimeLeft       int64  `yaml:"pause-time-left"`
}

// JobStats describe the statistics of a single job in typed form. Use
// StatsJob for the full mapping.
type JobStats struct {
	ID       uint64        `yaml:"id"`
	Tube     string        `yaml:"tube"`
	State    string        `yaml:"state"`
	Priority uint32        `yaml:"pri"`
	Age      time.Duration `yaml:"age"`
	Delay    time.Duration `yaml:"delay"`
	TTR      time.Duration `yaml:"ttr"`
	TimeLeft time.Duration `yaml:"time-left"`
	Reserves uint32        `yaml:"reserves"`
	Timeouts uint32        `yaml:"timeouts"`
	Releases uint32        `yaml:"releases"`
	Buries   uint32        `yaml:"buries"`
	Kicks    uint32        `yaml:"kicks"`
}

// ServerStats returns typed statistics about the server.
func (c *Client) ServerStats(ctx context.Context) (ServerStats, error) {
	var serverStats ServerStats

	resp, err := c.do(ctx, statsRequest())
	if err != nil {
		return serverStats, err
	}

	err = yaml.Unmarshal(resp.body, &serverStats)
	return serverStats, err
}

// TubeStats returns typed statistics about the tube with the given name.
func (c *Client) TubeStats(ctx context.Context, tube string) (TubeStats, error) {
	var tubeStats TubeStats

	resp, err := c.do(ctx, statsTubeRequest(tube))
	if err != nil {
		return tubeStats, err
	}

	err = yaml.Unmarshal(resp.body, &tubeStats)
	return tubeStats, err
}

// JobStats returns typed statistics about the job with the given id.
func (c *Client) JobStats(ctx context.Context, id uint64) (JobStats, error) {
	var jobStats JobStats

	resp, err := c.do(ctx, statsJobRequest(id))
	if err != nil {
		return jobStats, err
	}
	if err = yaml.Unmarshal(resp.body, &jobStats); err != nil {
		return jobStats, err
	}

	// The server reports seconds.
	jobStats.Age *= time.Second
	jobStats.Delay *= time.Second
	jobStats.TTR *= time.Second
	jobStats.TimeLeft *= time.Second

	return jobStats, nil
}
