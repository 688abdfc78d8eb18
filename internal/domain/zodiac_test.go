package domain

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestClassifySignBoundaries(t *testing.T) {
	cases := []struct {
		birthdate time.Time
		want      ZodiacSign
	}{
		{date(1990, time.March, 21), Aries},
		{date(1990, time.April, 19), Aries},
		{date(1990, time.April, 20), Taurus},
		{date(1990, time.March, 20), Pisces},
		{date(1990, time.February, 19), Pisces},
		{date(1990, time.December, 22), Capricorn},
		{date(1990, time.January, 1), Capricorn},
		{date(1990, time.January, 19), Capricorn},
		{date(1990, time.January, 20), Aquarius},
		{date(1990, time.February, 18), Aquarius},
		{date(2000, time.February, 29), Pisces},
		{date(2000, time.July, 10), Cancer},
	}
	for _, tc := range cases {
		got := ClassifySign(tc.birthdate)
		if got != tc.want {
			t.Errorf("%s: ожидали %s, получили %s", tc.birthdate.Format("2006-01-02"), tc.want, got)
		}
	}
}

func TestClassifySignCoversWholeYear(t *testing.T) {
	// Високосный год покрывает и 29 февраля.
	counts := make(map[ZodiacSign]int)
	day := date(2000, time.January, 1)
	for day.Year() == 2000 {
		sign := ClassifySign(day)
		if !sign.Valid() {
			t.Fatalf("%s: получили неизвестный знак %q", day.Format("2006-01-02"), sign)
		}
		counts[sign]++
		day = day.AddDate(0, 0, 1)
	}
	total := 0
	for _, sign := range AllSigns {
		if counts[sign] == 0 {
			t.Errorf("знак %s не покрывает ни одного дня", sign)
		}
		total += counts[sign]
	}
	if total != 366 {
		t.Fatalf("ожидали 366 дней, получили %d", total)
	}
}

func TestClassifySignIgnoresYear(t *testing.T) {
	for _, y := range []int{1970, 1999, 2024} {
		day := date(y, time.January, 1)
		for day.Year() == y {
			reference := date(2001, day.Month(), day.Day())
			if got, want := ClassifySign(day), ClassifySign(reference); got != want {
				t.Fatalf("%s: знак зависит от года (%s против %s)", day.Format("2006-01-02"), got, want)
			}
			day = day.AddDate(0, 0, 1)
		}
	}
}

func TestSignInfoKnownForAllSigns(t *testing.T) {
	for _, sign := range AllSigns {
		if _, ok := SignInfo(sign); !ok {
			t.Errorf("нет справочных данных для %s", sign)
		}
	}
	if _, ok := SignInfo("ophiuchus"); ok {
		t.Error("не ожидали данных для неизвестного знака")
	}
}

func TestNormalizeDay(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	moment := time.Date(2024, time.June, 1, 1, 30, 0, 0, loc)
	got := NormalizeDay(moment)
	want := date(2024, time.May, 31)
	if !got.Equal(want) {
		t.Fatalf("ожидали %s, получили %s", want, got)
	}
	if got.Hour() != 0 || got.Minute() != 0 {
		t.Fatal("время не усечено до полуночи")
	}
}
