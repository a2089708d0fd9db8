package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	shopv1 "github.com/vladislavdragonenkov/storefront/api/shop/v1"
)

type latencySummary struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

type methodReport struct {
	Calls     int64            `json:"calls"`
	Success   int64            `json:"success"`
	Rejected  int64            `json:"rejected"`
	Failed    int64            `json:"failed"`
	ErrorRate float64          `json:"error_rate"`
	Codes     map[string]int64 `json:"codes"`
	LatencyMs latencySummary   `json:"latency_ms"`
}

// stockReport сверяет остаток товара после прогона с числом принятых покупок.
type stockReport struct {
	ItemID        string `json:"item_id"`
	Initial       int64  `json:"initial"`
	Remaining     int64  `json:"remaining"`
	Expected      int64  `json:"expected"`
	AcceptedUnits int64  `json:"accepted_units"`
	Oversold      bool   `json:"oversold"`
	Consistent    bool   `json:"consistent"`
}

type report struct {
	RunID             string                  `json:"run_id"`
	Mode              string                  `json:"mode"`
	StartedAt         time.Time               `json:"started_at"`
	DurationSeconds   float64                 `json:"duration_seconds"`
	TotalScenarios    int64                   `json:"total_scenarios"`
	Accepted          int64                   `json:"accepted"`
	Rejected          int64                   `json:"rejected"`
	FailedScenarios   int64                   `json:"failed_scenarios"`
	ErrorRate         float64                 `json:"error_rate"`
	RPS               float64                 `json:"rps"`
	ScenarioLatencyMs latencySummary          `json:"scenario_latency_ms"`
	Methods           map[string]methodReport `json:"methods"`
	Stock             stockReport             `json:"stock"`
}

// Passed — прогон без технических ошибок, без перепродажи и со сходящимся остатком.
func (r report) Passed() bool {
	return r.FailedScenarios == 0 && !r.Stock.Oversold && r.Stock.Consistent
}

// reconcile проверяет, что продано не больше начального остатка и что
// остаток равен начальному минус проданное. В режиме buy-cancel каждая
// покупка отменяется, поэтому остаток возвращается к исходному.
func reconcile(mode loadMode, qty int64, item shopv1.Item, remaining, accepted int64) stockReport {
	sold := accepted * qty
	expected := item.StockQty - sold
	if mode == modeBuyCancel {
		expected = item.StockQty
	}
	return stockReport{
		ItemID:        item.ID,
		Initial:       item.StockQty,
		Remaining:     remaining,
		Expected:      expected,
		AcceptedUnits: sold,
		Oversold:      remaining < 0 || (mode != modeBuyCancel && sold > item.StockQty),
		Consistent:    remaining >= 0 && remaining == expected,
	}
}

// writeReport пишет отчёт в файл внутри текущего каталога.
func writeReport(path string, r report) error {
	clean := filepath.Clean(path)
	switch {
	case clean == "." || clean == string(filepath.Separator):
		return errors.New("report path must name a file")
	case filepath.IsAbs(clean), clean == "..", strings.HasPrefix(clean, ".."+string(filepath.Separator)):
		return fmt.Errorf("report path %q leaves the working directory", path)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return os.WriteFile(clean, append(data, '\n'), 0o644)
}

func printReport(w io.Writer, r report) {
	_, _ = fmt.Fprintf(w, "run %s mode=%s buyers=%d accepted=%d rejected=%d failed=%d error_rate=%.4f\n",
		r.RunID, r.Mode, r.TotalScenarios, r.Accepted, r.Rejected, r.FailedScenarios, r.ErrorRate)
	_, _ = fmt.Fprintf(w, "stock item=%s initial=%d remaining=%d expected=%d oversold=%t consistent=%t\n",
		r.Stock.ItemID, r.Stock.Initial, r.Stock.Remaining, r.Stock.Expected, r.Stock.Oversold, r.Stock.Consistent)

	l := r.ScenarioLatencyMs
	_, _ = fmt.Fprintf(w, "duration=%.2fs rps=%.2f latency_ms min=%.2f avg=%.2f p50=%.2f p95=%.2f p99=%.2f max=%.2f\n",
		r.DurationSeconds, r.RPS, l.Min, l.Avg, l.P50, l.P95, l.P99, l.Max)

	var names []string
	for name := range r.Methods {
		if name != scenarioSeries {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	for _, name := range names {
		m := r.Methods[name]
		_, _ = fmt.Fprintf(w, "  %s: calls=%d ok=%d rejected=%d failed=%d p95=%.2fms\n",
			name, m.Calls, m.Success, m.Rejected, m.Failed, m.LatencyMs.P95)
	}
}
