package metrics

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/puzzletitles/puzzletitles/updater/internal/atomicfile"
	"github.com/puzzletitles/puzzletitles/updater/internal/pipeline"
	"github.com/puzzletitles/puzzletitles/updater/internal/scraper"
)

const namespace = "puzzletitles"

// reasons lists every failure reason, so absent reasons export as 0.
var reasons = []scraper.Reason{
	scraper.ReasonTransport,
	scraper.ReasonStatus,
	scraper.ReasonParse,
	scraper.ReasonCanceled,
}

// Families converts st into metric families, sorted by name.
func Families(st pipeline.Stats) []*dto.MetricFamily {
	fams := []*dto.MetricFamily{
		titlesFamily(st),
		gauge("run_last_timestamp_seconds",
			"Unix time the last run finished.",
			float64(st.FinishedAt.Unix())),
		gauge("run_duration_seconds",
			"Wall time of the last run.",
			st.FinishedAt.Sub(st.StartedAt).Seconds()),
		gauge("run_interrupted",
			"1 if the last run was cut short by shutdown.",
			boolFloat(st.Interrupted)),
		resultsFamily(st),
	}
	sort.Slice(fams, func(i, j int) bool { return fams[i].GetName() < fams[j].GetName() })
	return fams
}

// Render writes st in text exposition format.
func Render(st pipeline.Stats) ([]byte, error) {
	var buf bytes.Buffer
	for _, mf := range Families(st) {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return nil, fmt.Errorf("metrics: encode %s: %w", mf.GetName(), err)
		}
	}
	return buf.Bytes(), nil
}

// WriteTextfile renders st to path, replacing the file atomically so a
// collector never reads a partial write.
func WriteTextfile(path string, st pipeline.Stats) error {
	data, err := Render(st)
	if err != nil {
		return err
	}
	if err := atomicfile.Write(path, data, 0o644); err != nil {
		return fmt.Errorf("metrics: write textfile: %w", err)
	}
	return nil
}

func titlesFamily(st pipeline.Stats) *dto.MetricFamily {
	years := make([]int, 0, len(st.Titles))
	for y := range st.Titles {
		years = append(years, y)
	}
	sort.Ints(years)

	mf := family("titles", "Puzzle titles held in the store, by year.", dto.MetricType_GAUGE)
	for _, y := range years {
		mf.Metric = append(mf.Metric, &dto.Metric{
			Label: []*dto.LabelPair{label("year", strconv.Itoa(y))},
			Gauge: &dto.Gauge{Value: proto.Float64(float64(st.Titles[y]))},
		})
	}
	return mf
}

func resultsFamily(st pipeline.Stats) *dto.MetricFamily {
	mf := family("fetch_results", "Day lookups in the last run, by outcome.", dto.MetricType_GAUGE)
	add := func(outcome, reason string, v int) {
		mf.Metric = append(mf.Metric, &dto.Metric{
			Label: []*dto.LabelPair{label("outcome", outcome), label("reason", reason)},
			Gauge: &dto.Gauge{Value: proto.Float64(float64(v))},
		})
	}
	add("known", "", st.Known)
	add("cache", "", st.Cached)
	add("network", "", st.Fetched)
	for _, r := range reasons {
		add("failed", r.String(), st.FailedBy[r])
	}
	return mf
}

func family(name, help string, typ dto.MetricType) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(namespace + "_" + name),
		Help: proto.String(help),
		Type: typ.Enum(),
	}
}

func gauge(name, help string, v float64) *dto.MetricFamily {
	mf := family(name, help, dto.MetricType_GAUGE)
	mf.Metric = []*dto.Metric{{Gauge: &dto.Gauge{Value: proto.Float64(v)}}}
	return mf
}

func label(name, value string) *dto.LabelPair {
	return &dto.LabelPair{Name: proto.String(name), Value: proto.String(value)}
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
