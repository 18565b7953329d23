package processor

import (
	"sort"
	"time"

	"CovidDashboard/src/dataset"
)

// DailyTotal 某一天所有匹配行的合计
type DailyTotal struct {
	Date      time.Time `json:"date"`
	Confirmed float64   `json:"confirmed"`
	Deaths    float64   `json:"deaths"`
	Recovered float64   `json:"recovered"`
}

// RegionMean 地区死亡数均值
type RegionMean struct {
	Region string         `json:"region"`
	Mean   dataset.Number `json:"mean"`
	Count  int            `json:"count"` // 参与计算的有效值个数
}

// CountryPeak 区间内某国确诊的最大值
type CountryPeak struct {
	Country   string  `json:"country"`
	Confirmed float64 `json:"confirmed"`
}

// CaseShare 国家最新一行的病例构成
type CaseShare struct {
	Country        string    `json:"country"`
	Date           time.Time `json:"date"`
	Active         float64   `json:"active"`
	Recovered      float64   `json:"recovered"`
	Deaths         float64   `json:"deaths"`
	ActiveShare    float64   `json:"active_share"`
	RecoveredShare float64   `json:"recovered_share"`
	DeathsShare    float64   `json:"deaths_share"`
}

// GlobalTrend 按日期汇总确诊、死亡、治愈，日期升序
// 缺失值不参与求和
func (v *View) GlobalTrend() []DailyTotal {
	index := make(map[time.Time]int)
	totals := make([]DailyTotal, 0)
	for _, r := range v.records {
		i, ok := index[r.Date]
		if !ok {
			i = len(totals)
			index[r.Date] = i
			totals = append(totals, DailyTotal{Date: r.Date})
		}
		totals[i].Confirmed += r.Confirmed.Or(0)
		totals[i].Deaths += r.Deaths.Or(0)
		totals[i].Recovered += r.Recovered.Or(0)
	}
	sort.SliceStable(totals, func(a, b int) bool {
		return totals[a].Date.Before(totals[b].Date)
	})
	return totals
}

// RegionDeathMeans 各地区死亡数均值，按均值降序
// 均值相同按首次出现顺序，没有有效值的地区排在最后
func (v *View) RegionDeathMeans() []RegionMean {
	type acc struct {
		sum   float64
		count int
	}
	var order []string
	accs := make(map[string]*acc)
	for _, r := range v.records {
		a, ok := accs[r.WHORegion]
		if !ok {
			a = &acc{}
			accs[r.WHORegion] = a
			order = append(order, r.WHORegion)
		}
		if r.Deaths.Valid {
			a.sum += r.Deaths.Value
			a.count++
		}
	}

	means := make([]RegionMean, 0, len(order))
	for _, region := range order {
		a := accs[region]
		m := RegionMean{Region: region, Count: a.count}
		if a.count > 0 {
			m.Mean = dataset.Num(a.sum / float64(a.count))
		}
		means = append(means, m)
	}
	sort.SliceStable(means, func(i, j int) bool {
		if means[i].Mean.Valid != means[j].Mean.Valid {
			return means[i].Mean.Valid
		}
		return means[i].Mean.Value > means[j].Mean.Value
	})
	return means
}

// TopAffected 按区间内确诊最大值取前n个国家
// 并列时保持原始行的先后顺序，确诊全部缺失的国家排在最后
func (v *View) TopAffected(n int) []CountryPeak {
	if n <= 0 {
		return []CountryPeak{}
	}
	type peak struct {
		CountryPeak
		valid bool
	}
	index := make(map[string]int)
	acc := make([]peak, 0)
	for _, r := range v.records {
		i, ok := index[r.Country]
		if !ok {
			i = len(acc)
			index[r.Country] = i
			acc = append(acc, peak{CountryPeak: CountryPeak{Country: r.Country}})
		}
		if !r.Confirmed.Valid {
			continue
		}
		if !acc[i].valid || r.Confirmed.Value > acc[i].Confirmed {
			acc[i].Confirmed = r.Confirmed.Value
			acc[i].valid = true
		}
	}

	sort.SliceStable(acc, func(a, b int) bool {
		if acc[a].valid != acc[b].valid {
			return acc[a].valid
		}
		return acc[a].Confirmed > acc[b].Confirmed
	})
	if len(acc) > n {
		acc = acc[:n]
	}
	peaks := make([]CountryPeak, len(acc))
	for i := range acc {
		peaks[i] = acc[i].CountryPeak
	}
	return peaks
}

// CaseDistribution 取每个国家日期最晚的一行计算三项占比
// 日期相同时后出现的行优先，视图中没有数据的国家直接跳过
func (v *View) CaseDistribution(countries []string) []CaseShare {
	latest := make(map[string]int)
	for i, r := range v.records {
		j, ok := latest[r.Country]
		if !ok || !r.Date.Before(v.records[j].Date) {
			latest[r.Country] = i
		}
	}

	shares := make([]CaseShare, 0, len(countries))
	for _, country := range countries {
		i, ok := latest[country]
		if !ok {
			continue
		}
		r := v.records[i]
		s := CaseShare{
			Country:   country,
			Date:      r.Date,
			Active:    r.Active.Or(0),
			Recovered: r.Recovered.Or(0),
			Deaths:    r.Deaths.Or(0),
		}
		if total := s.Active + s.Recovered + s.Deaths; total > 0 {
			s.ActiveShare = s.Active / total
			s.RecoveredShare = s.Recovered / total
			s.DeathsShare = s.Deaths / total
		}
		shares = append(shares, s)
	}
	return shares
}
