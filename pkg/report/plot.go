package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/sorttrace/pkg/algorithm"
	"github.com/Sumatoshi-tech/sorttrace/pkg/operation"
)

const (
	chartWidth         = "100%"
	chartHeight        = "480px"
	dataZoomEndPercent = 100
)

// Theme holds the colours used by the statistics page.
type Theme struct {
	Grid      string
	Axis      string
	Text      string
	TextMuted string
	Palette   map[operation.Type]string
}

// DarkTheme is the default chart theme.
var DarkTheme = Theme{
	Grid:      "#44403c", // stone-700.
	Axis:      "#57534e", // stone-600.
	Text:      "#d6d3d1", // stone-300.
	TextMuted: "#a8a29e", // stone-400.
	Palette: map[operation.Type]string{
		operation.TypeCompare: "#38bdf8", // sky-400.
		operation.TypeSwap:    "#fbbf24", // amber-400.
		operation.TypeMark:    "#a3e635", // lime-400.
		operation.TypeMerge:   "#a78bfa", // violet-400.
		operation.TypeSplit:   "#f472b6", // pink-400.
	},
}

func (t Theme) globalOptions(title, subtitle, yAxis string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:       title,
			Width:           chartWidth,
			Height:          chartHeight,
			BackgroundColor: "transparent",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:         title,
			Subtitle:      subtitle,
			Left:          "center",
			TitleStyle:    &opts.TextStyle{Color: t.Text},
			SubtitleStyle: &opts.TextStyle{Color: t.TextMuted},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{
			Show:      opts.Bool(true),
			Top:       "12%",
			Left:      "center",
			TextStyle: &opts.TextStyle{Color: t.TextMuted},
		}),
		charts.WithGridOpts(opts.Grid{
			Top:          "22%",
			Bottom:       "15%",
			Left:         "5%",
			Right:        "5%",
			ContainLabel: opts.Bool(true),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{Color: t.TextMuted},
			AxisLine:  &opts.AxisLine{LineStyle: &opts.LineStyle{Color: t.Axis}},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:      yAxis,
			AxisLabel: &opts.AxisLabel{Color: t.TextMuted},
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: t.Grid}},
		}),
	}
}

// BuildStepChart plots cumulative comparisons, swaps and merge writes
// against the step number.
func BuildStepChart(doc algorithm.Document, theme Theme) *charts.Line {
	tracked := []operation.Type{operation.TypeCompare, operation.TypeSwap, operation.TypeMerge}

	labels := make([]string, len(doc.Operations)+1)
	series := make(map[operation.Type][]opts.LineData, len(tracked))
	running := make(map[operation.Type]int, len(tracked))

	for step := range labels {
		labels[step] = strconv.Itoa(step)

		if step > 0 {
			running[doc.Operations[step-1].Type]++
		}

		for _, typ := range tracked {
			series[typ] = append(series[typ], opts.LineData{Value: running[typ]})
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(theme.globalOptions(doc.Metadata.Name, "cumulative operations per step", "operations")...)
	line.SetGlobalOptions(charts.WithDataZoomOpts(
		opts.DataZoom{Type: "slider", Start: 0, End: dataZoomEndPercent},
		opts.DataZoom{Type: "inside"},
	))
	line.SetXAxis(labels)

	for _, typ := range tracked {
		color := theme.Palette[typ]
		line.AddSeries(string(typ), series[typ],
			charts.WithItemStyleOpts(opts.ItemStyle{Color: color}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: color}),
		)
	}

	return line
}

// BuildHistogram plots how many operations of each type the trace holds.
func BuildHistogram(doc algorithm.Document, theme Theme) *charts.Bar {
	labels := make([]string, len(operation.Types))
	data := make([]opts.BarData, len(operation.Types))

	for i, typ := range operation.Types {
		labels[i] = string(typ)
		data[i] = opts.BarData{
			Value:     doc.Operations.Count(typ),
			ItemStyle: &opts.ItemStyle{Color: theme.Palette[typ]},
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(theme.globalOptions(doc.Metadata.Name, "operations by type", "count")...)
	bar.SetXAxis(labels)
	bar.AddSeries("operations", data)

	return bar
}

// WritePlot writes an HTML page with the step chart and the histogram.
func WritePlot(w io.Writer, doc algorithm.Document) error {
	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("%s trace", doc.Algorithm)
	page.AddCharts(
		BuildStepChart(doc, DarkTheme),
		BuildHistogram(doc, DarkTheme),
	)

	err := page.Render(w)
	if err != nil {
		return fmt.Errorf("render plot: %w", err)
	}

	return nil
}
