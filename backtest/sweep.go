package backtest

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/perpbt/internal/metrics"
	"github.com/rustyeddy/perpbt/market"
	"github.com/rustyeddy/perpbt/market/strategies"
)

// Job is one (symbol, strategy, params) combination.
type Job struct {
	Series   *market.Series
	Strategy strategies.Strategy
	Params   strategies.Params
}

func (j Job) String() string {
	name := "<nil>"
	if j.Strategy != nil {
		name = j.Strategy.Name()
	}
	sym := ""
	if j.Series != nil {
		sym = j.Series.Symbol
	}
	return fmt.Sprintf("%s/%s[%s]", sym, name, j.Params)
}

// Outcome pairs a job with its result or error. Index is the job's position
// in the input slice.
type Outcome struct {
	Index  int
	Job    Job
	Result *Result
	Err    error
}

// RunFunc executes one job.
type RunFunc func(ctx context.Context, job Job) (*Result, error)

// Sweep runs independent jobs on a bounded worker pool. Jobs share their
// series read only; a job that fails or panics produces an Outcome with Err
// set and never stops its siblings.
type Sweep struct {
	Workers int
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Run executes jobs and returns one Outcome per job, in input
// order. Cancelling ctx stops dispatch; jobs already running finish and
// undispatched jobs come back with ctx's error.
func (s Sweep) Run(ctx context.Context, jobs []Job, fn RunFunc) Outcomes {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := s.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, max(len(jobs), 1))

	logger.Info("starting sweep", zap.Int("jobs", len(jobs)), zap.Int("workers", workers))
	start := time.Now()

	jobChan := make(chan int)
	resultChan := make(chan Outcome, len(jobs))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go s.worker(ctx, w, logger, jobs, fn, jobChan, resultChan, &wg)
	}

	dispatched := make([]bool, len(jobs))
dispatch:
	for i := range jobs {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case jobChan <- i:
			dispatched[i] = true
		}
	}
	close(jobChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	out := make(Outcomes, len(jobs))
	for o := range resultChan {
		out[o.Index] = o
	}
	for i, ok := range dispatched {
		if !ok {
			out[i] = Outcome{Index: i, Job: jobs[i], Err: ctx.Err()}
			s.Metrics.RecordRun(jobName(jobs[i]), metrics.StatusSkipped, 0, 0, 0, 0)
		}
	}

	logger.Info("sweep finished",
		zap.Int("succeeded", len(out.Succeeded())),
		zap.Int("failed", len(out.Failed())),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out
}

func (s Sweep) worker(
	ctx context.Context,
	workerID int,
	logger *zap.Logger,
	jobs []Job,
	fn RunFunc,
	jobChan <-chan int,
	resultChan chan<- Outcome,
	wg *sync.WaitGroup,
) {
	defer wg.Done()

	for i := range jobChan {
		job := jobs[i]
		logger.Debug("worker processing job", zap.Int("worker_id", workerID), zap.Stringer("job", job))

		s.Metrics.Started()
		began := time.Now()
		res, panicked, err := s.execute(ctx, job, fn)
		elapsed := time.Since(began)
		s.Metrics.Finished()

		status := metrics.StatusOK
		switch {
		case panicked:
			status = metrics.StatusPanicked
		case err != nil:
			status = metrics.StatusFailed
		}

		if err != nil {
			logger.Warn("job failed", zap.Int("worker_id", workerID), zap.Stringer("job", job), zap.Error(err))
			s.Metrics.RecordRun(jobName(job), status, elapsed, 0, 0, 0)
		} else {
			s.Metrics.RecordRun(jobName(job), status, elapsed, res.Report.Bars, res.Report.Trades, res.Report.Liquidations)
		}
		resultChan <- Outcome{Index: i, Job: job, Result: res, Err: err}
	}
}

func (s Sweep) execute(ctx context.Context, job Job, fn RunFunc) (res *Result, panicked bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, panicked = nil, true
			err = fmt.Errorf("panic in %s: %v\n%s", job, r, debug.Stack())
		}
	}()
	res, err = fn(ctx, job)
	if err == nil && res == nil {
		err = fmt.Errorf("%s: no result", job)
	}
	return res, false, err
}

func jobName(j Job) string {
	if j.Strategy == nil {
		return ""
	}
	return j.Strategy.Name()
}

// RunJob is the default RunFunc: a Runner with settings s.
func RunJob(s Settings) RunFunc {
	return func(ctx context.Context, job Job) (*Result, error) {
		return Runner{Strategy: job.Strategy, Settings: s}.Run(ctx, job.Series, job.Params)
	}
}

// Grid expands every series against every strategy's candidates.
func Grid(series []*market.Series, strats []strategies.Strategy) []Job {
	var jobs []Job
	for _, s := range series {
		for _, st := range strats {
			for _, p := range st.Candidates() {
				jobs = append(jobs, Job{Series: s, Strategy: st, Params: p})
			}
		}
	}
	return jobs
}

// Outcomes is a sweep's result set.
type Outcomes []Outcome

// Succeeded returns the results of jobs that completed without error.
func (o Outcomes) Succeeded() []*Result {
	var out []*Result
	for _, x := range o {
		if x.Err == nil && x.Result != nil {
			out = append(out, x.Result)
		}
	}
	return out
}

func (o Outcomes) Failed() Outcomes {
	var out Outcomes
	for _, x := range o {
		if x.Err != nil {
			out = append(out, x)
		}
	}
	return out
}

// Metric selects a report field to rank by.
type Metric string

const (
	MetricFinalEquity  Metric = "final_equity"
	MetricAnnualReturn Metric = "annual_return"
	MetricCalmar       Metric = "calmar"
	MetricSharpe       Metric = "sharpe"
	MetricMaxDrawdown  Metric = "max_drawdown"
	MetricWinRate      Metric = "win_rate"
)

var metricFields = map[Metric]func(Report) float64{
	MetricFinalEquity:  func(r Report) float64 { return r.FinalEquity },
	MetricAnnualReturn: func(r Report) float64 { return r.AnnualReturn },
	MetricCalmar:       func(r Report) float64 { return r.Calmar },
	MetricSharpe:       func(r Report) float64 { return r.Sharpe },
	MetricMaxDrawdown:  func(r Report) float64 { return r.MaxDrawdown },
	MetricWinRate:      func(r Report) float64 { return r.WinRate },
}

// Value reads m from r.
func (m Metric) Value(r Report) (float64, error) {
	f, ok := metricFields[m]
	if !ok {
		return 0, fmt.Errorf("unknown metric %q", m)
	}
	return f(r), nil
}

// Rank returns the successful results ordered best first by m. Drawdowns
// are negative, so the shallowest ranks first for every metric.
func (o Outcomes) Rank(m Metric) ([]*Result, error) {
	f, ok := metricFields[m]
	if !ok {
		return nil, fmt.Errorf("unknown metric %q", m)
	}
	res := o.Succeeded()
	sort.SliceStable(res, func(i, j int) bool {
		return f(res[i].Report) > f(res[j].Report)
	})
	return res, nil
}
