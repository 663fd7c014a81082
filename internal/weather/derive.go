package weather

import "time"

// Derive computes the per-hour differential, hour of day, mean water
// temperature and noon air temperature for a day of observations. The
// current hour comes from now, independent of the data.
func Derive(rows []HourlyObservation, loc *time.Location, now time.Time) Derived {
	if loc == nil {
		loc = time.UTC
	}

	d := Derived{
		Differential:  make([]float64, len(rows)),
		Hours:         make([]int, len(rows)),
		AirTempAtNoon: []float64{},
		CurrentHour:   now.In(loc).Hour(),
	}

	var sumWater float64
	for i, r := range rows {
		d.Differential[i] = r.WaveHeight - r.SwellHeight
		d.Hours[i] = r.Time.In(loc).Hour()
		sumWater += r.WaterTemp

		if d.Hours[i] == 12 {
			d.AirTempAtNoon = append(d.AirTempAtNoon, r.AirTemp)
		}
	}

	if len(rows) > 0 {
		d.MeanWaterTemp = sumWater / float64(len(rows))
	}
	return d
}
