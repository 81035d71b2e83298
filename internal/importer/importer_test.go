package importer

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"enforcement-analytics/internal/domain/event"
)

func workbookFrom(t *testing.T, rows ...[]interface{}) io.Reader {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i := range rows {
		ref, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, ref, &rows[i]))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestParseEventTime(t *testing.T) {
	cases := map[string]struct {
		raw  string
		want time.Time
		ok   bool
	}{
		"gregorian full":      {"2024-03-05 14:30:00", time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC), true},
		"gregorian T":         {"2024-03-05T14:30:00", time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC), true},
		"gregorian slashes":   {"2024/03/05 14:30", time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC), true},
		"gregorian date only": {"2024-03-05", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		"roc full":            {"113/03/05 14:30:00", time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC), true},
		"roc short":           {"114-1-8 9:05", time.Date(2025, 1, 8, 9, 5, 0, 0, time.UTC), true},
		"roc date only":       {"113/02/29", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), true},
		"roc two digit year":  {"95/01/08", time.Date(2006, 1, 8, 0, 0, 0, 0, time.UTC), true},
		"padded":              {"  2024-03-05  ", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		"empty":               {"", time.Time{}, false},
		"garbage":             {"today", time.Time{}, false},
		"roc bad month":       {"114/13/40", time.Time{}, false},
		"roc bad day":         {"113/02/30", time.Time{}, false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, ok := ParseEventTime(tc.raw)
			require.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.True(t, got.Equal(tc.want), "got %v want %v", got, tc.want)
			}
		})
	}
}

func TestClassifyViolation(t *testing.T) {
	cases := map[string]struct {
		clause string
		want   TopicFlags
	}{
		"dui code prefix":      {"35010 酒精濃度超過規定標準", TopicFlags{DUI: true}},
		"dui keyword":          {"9999 汽車駕駛人酒駕拒測", TopicFlags{DUI: true}},
		"red light prefix":     {"53010 汽車駕駛人闖紅燈", TopicFlags{RedLight: true}},
		"red light exact code": {"6002030060 紅燈越線", TopicFlags{RedLight: true}},
		"dangerous prefix":     {"43040 危險駕駛", TopicFlags{Dangerous: true}},
		"dangerous keyword":    {"1111 行駛路肩且超速", TopicFlags{Dangerous: true}},
		"multiple topics":      {"53010 酒駕並闖紅燈", TopicFlags{DUI: true, RedLight: true}},
		"no topic":             {"1234 併排臨時停車", TopicFlags{}},
		"code only":            {"3501", TopicFlags{DUI: true}},
		"empty":                {"", TopicFlags{}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyViolation(tc.clause))
		})
	}
}

func TestReadWorkbookCrash(t *testing.T) {
	wb := workbookFrom(t,
		[]interface{}{"交通事故案件清冊"},
		[]interface{}{"發生時間", "行政區", "發生地點", "事故類別", "肇事主要原因", "年齡", "性別", "緯度", "經度"},
		[]interface{}{"113/03/05 14:30:00", "臺南市東區", "中山路　與　中正路口", "A2", "未注意車前狀態", "67", "男", "22.99", "120.21"},
		[]interface{}{"2024-03-06 08:15:00", "永康區", "中華路", "X9", "", "30", "女", "", ""},
		[]interface{}{"not a date", "東區", "民族路", "A3", "", "", "", "", ""},
		[]interface{}{"2024-03-07 10:00:00", "臺南市", "某路", "A3", "", "", "", "", ""},
		[]interface{}{"", "", " "},
		[]interface{}{"2024-03-08 23:10:00", "北區", "公園路", "A1", "酒後駕車", "", "", "23.0", ""},
	)

	records, summary, err := ReadWorkbook(wb, KindCrash)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Imported)
	assert.Equal(t, map[string]int{
		SkipInvalidTimestamp: 1,
		SkipMissingDistrict:  1,
		SkipEmptyRow:         1,
	}, summary.Skipped)
	require.NotNil(t, summary.RangeStart)
	require.NotNil(t, summary.RangeEnd)
	assert.Equal(t, time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC), *summary.RangeStart)
	assert.Equal(t, time.Date(2024, 3, 8, 23, 10, 0, 0, time.UTC), *summary.RangeEnd)

	require.Len(t, records, 3)

	first := records[0]
	assert.Equal(t, event.KindCrash, first.Kind)
	assert.Equal(t, "東區", first.District)
	assert.Equal(t, "中山路 與 中正路口", first.LocationDesc)
	assert.Equal(t, "08", first.ShiftID)
	assert.Equal(t, event.SeverityA2, first.Severity)
	assert.Equal(t, "未注意車前狀態", first.Cause)
	assert.Equal(t, "65+", first.AgeGroup)
	assert.True(t, first.Elderly)
	require.True(t, first.HasCoordinates())
	assert.InDelta(t, 22.99, *first.Latitude, 1e-9)
	assert.InDelta(t, 120.21, *first.Longitude, 1e-9)

	second := records[1]
	assert.Equal(t, event.SeverityA3, second.Severity, "unknown class defaults to A3")
	assert.Equal(t, "25-44", second.AgeGroup)
	assert.False(t, second.HasCoordinates())

	third := records[2]
	assert.Equal(t, "12", third.ShiftID)
	assert.False(t, third.HasCoordinates(), "half a coordinate pair is dropped")
	assert.Equal(t, "未知", third.AgeGroup)
}

func TestReadWorkbookTicket(t *testing.T) {
	wb := workbookFrom(t,
		[]interface{}{"違規時間(出)", "行政區", "違規地點", "違規條款1", "年齡組", "性別"},
		[]interface{}{"113/02/10 09:05:00", "東區", "東門路", "53010 汽車駕駛人闖紅燈", "25-44", "男"},
		[]interface{}{"2024-02-11 21:40:00", "南區", "金華路", "35010 酒精濃度超過規定標準", "65+", "男"},
		[]interface{}{"2024-02-12 03:20:00", "北區", "西門路", "1234 併排臨時停車", "18-24", "女"},
	)

	records, summary, err := ReadWorkbook(wb, KindTicket)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Imported)
	assert.Empty(t, summary.Skipped)
	require.Len(t, records, 3)

	assert.Equal(t, event.KindTicket, records[0].Kind)
	assert.True(t, records[0].TopicRedLight)
	assert.False(t, records[0].TopicDUI)

	assert.True(t, records[1].TopicDUI)
	assert.True(t, records[1].Elderly)

	assert.True(t, records[2].MatchesTopic(event.TopicOther))
	assert.Equal(t, "02", records[2].ShiftID)
}

func TestReadWorkbookNoHeader(t *testing.T) {
	wb := workbookFrom(t,
		[]interface{}{"只有標題", "沒有欄位"},
		[]interface{}{"1", "2"},
	)
	_, _, err := ReadWorkbook(wb, KindCrash)
	require.Error(t, err)
}

func TestParseKind(t *testing.T) {
	for raw, want := range map[string]Kind{"crash": KindCrash, " Ticket ": KindTicket, "CRASH": KindCrash} {
		got, ok := ParseKind(raw)
		require.True(t, ok, raw)
		assert.Equal(t, want, got)
	}
	if _, ok := ParseKind("bus"); ok {
		t.Fatal("unknown kind accepted")
	}
}
