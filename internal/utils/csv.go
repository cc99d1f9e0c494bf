package utils

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"volumeBreakoutBot/internal/domain"
	"volumeBreakoutBot/internal/strategy/indicators"
)

// WriteAnnotatedKlinesToCSV dumps a kline series together with its
// index-aligned indicator points. Undefined indicator values are written as
// empty cells rather than "NaN" so the file loads cleanly into spreadsheets.
func WriteAnnotatedKlinesToCSV(klines []*domain.Kline, points []indicators.Point, filename string) error {
	if len(klines) != len(points) {
		return fmt.Errorf("klines (%d) and indicator points (%d) must be index-aligned", len(klines), len(points))
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	writer.Write([]string{
		"open_time", "close_time", "symbol", "interval",
		"open", "high", "low", "close", "volume",
		"volume_ma", "volume_ratio", "price_change_pct",
	})

	for i, k := range klines {
		p := points[i]
		writer.Write([]string{
			k.OpenTime.Format(time.RFC3339),
			k.CloseTime.Format(time.RFC3339),
			k.Symbol,
			k.Interval,
			formatFloat(k.Open),
			formatFloat(k.High),
			formatFloat(k.Low),
			formatFloat(k.Close),
			formatFloat(k.Volume),
			formatFloat(p.VolumeMA),
			formatFloat(p.VolumeRatio),
			formatFloat(p.PriceChangePct),
		})
	}
	return writer.Error()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
