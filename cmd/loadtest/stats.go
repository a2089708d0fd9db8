package main

import (
	"slices"
	"sync"
	"time"

	"google.golang.org/grpc/codes"
)

// scenarioSeries — синтетическая серия: один сценарий покупателя целиком.
const scenarioSeries = "scenario"

// outcome классифицирует ответ витрины.
type outcome int

const (
	outcomeOK outcome = iota
	// outcomeRejected — ожидаемый отказ: товар закончился.
	outcomeRejected
	outcomeFailed
)

func classify(code codes.Code) outcome {
	switch code {
	case codes.OK:
		return outcomeOK
	case codes.FailedPrecondition:
		return outcomeRejected
	default:
		return outcomeFailed
	}
}

type series struct {
	outcomes  [3]int64
	codes     map[codes.Code]int64
	latencies []time.Duration
}

func (s *series) calls() int64 {
	return s.outcomes[outcomeOK] + s.outcomes[outcomeRejected] + s.outcomes[outcomeFailed]
}

// recorder копит результаты вызовов по сериям. Безопасен для горутин.
type recorder struct {
	mu     sync.Mutex
	series map[string]*series
}

func newRecorder() *recorder {
	return &recorder{series: make(map[string]*series)}
}

func (r *recorder) observe(name string, took time.Duration, code codes.Code) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.series[name]
	if s == nil {
		s = &series{codes: make(map[codes.Code]int64)}
		r.series[name] = s
	}
	s.outcomes[classify(code)]++
	s.codes[code]++
	s.latencies = append(s.latencies, took)
}

func (r *recorder) report(startedAt time.Time, elapsed time.Duration) report {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := report{
		StartedAt:       startedAt.UTC(),
		DurationSeconds: elapsed.Seconds(),
		Methods:         make(map[string]methodReport, len(r.series)),
	}
	for name, s := range r.series {
		out.Methods[name] = s.report()
	}

	if s := r.series[scenarioSeries]; s != nil {
		out.TotalScenarios = s.calls()
		out.Accepted = s.outcomes[outcomeOK]
		out.Rejected = s.outcomes[outcomeRejected]
		out.FailedScenarios = s.outcomes[outcomeFailed]
		out.ErrorRate = share(out.FailedScenarios, out.TotalScenarios)
		out.ScenarioLatencyMs = summarize(s.latencies)
		if elapsed > 0 {
			out.RPS = float64(out.TotalScenarios) / elapsed.Seconds()
		}
	}
	return out
}

func (s *series) report() methodReport {
	byCode := make(map[string]int64, len(s.codes))
	for code, n := range s.codes {
		byCode[code.String()] = n
	}
	calls := s.calls()
	return methodReport{
		Calls:     calls,
		Success:   s.outcomes[outcomeOK],
		Rejected:  s.outcomes[outcomeRejected],
		Failed:    s.outcomes[outcomeFailed],
		ErrorRate: share(s.outcomes[outcomeFailed], calls),
		Codes:     byCode,
		LatencyMs: summarize(s.latencies),
	}
}

// summarize считает перцентили методом ближайшего ранга.
func summarize(latencies []time.Duration) latencySummary {
	if len(latencies) == 0 {
		return latencySummary{}
	}
	sorted := slices.Clone(latencies)
	slices.Sort(sorted)

	var total time.Duration
	for _, d := range sorted {
		total += d
	}
	return latencySummary{
		Min: millis(sorted[0]),
		Max: millis(sorted[len(sorted)-1]),
		Avg: millis(total / time.Duration(len(sorted))),
		P50: millis(nearestRank(sorted, 50)),
		P95: millis(nearestRank(sorted, 95)),
		P99: millis(nearestRank(sorted, 99)),
	}
}

// nearestRank — наименьшее значение, не меньше которого p процентов выборки.
func nearestRank(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := (p*len(sorted) + 99) / 100
	return sorted[min(max(rank, 1), len(sorted))-1]
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func share(part, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total)
}
