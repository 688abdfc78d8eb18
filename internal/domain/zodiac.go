package domain

import "time"

// ZodiacSign — один из 12 фиксированных знаков зодиака.
type ZodiacSign string

const (
	Aries       ZodiacSign = "aries"
	Taurus      ZodiacSign = "taurus"
	Gemini      ZodiacSign = "gemini"
	Cancer      ZodiacSign = "cancer"
	Leo         ZodiacSign = "leo"
	Virgo       ZodiacSign = "virgo"
	Libra       ZodiacSign = "libra"
	Scorpio     ZodiacSign = "scorpio"
	Sagittarius ZodiacSign = "sagittarius"
	Capricorn   ZodiacSign = "capricorn"
	Aquarius    ZodiacSign = "aquarius"
	Pisces      ZodiacSign = "pisces"
)

// AllSigns перечисляет знаки в порядке зодиакального года.
var AllSigns = []ZodiacSign{
	Aries, Taurus, Gemini, Cancer, Leo, Virgo,
	Libra, Scorpio, Sagittarius, Capricorn, Aquarius, Pisces,
}

// signBoundary задаёт включительные границы знака по месяцу и дню.
type signBoundary struct {
	sign                                   ZodiacSign
	startMonth, startDay, endMonth, endDay int
}

// Козерог переходит через конец года и обрабатывается отдельно.
var boundaries = []signBoundary{
	{Aries, 3, 21, 4, 19},
	{Taurus, 4, 20, 5, 20},
	{Gemini, 5, 21, 6, 20},
	{Cancer, 6, 21, 7, 22},
	{Leo, 7, 23, 8, 22},
	{Virgo, 8, 23, 9, 22},
	{Libra, 9, 23, 10, 22},
	{Scorpio, 10, 23, 11, 21},
	{Sagittarius, 11, 22, 12, 21},
	{Aquarius, 1, 20, 2, 18},
	{Pisces, 2, 19, 3, 20},
}

// ClassifySign определяет знак зодиака по дате рождения.
// Функция чистая и тотальная: год игнорируется, любая пара (месяц, день),
// включая 29 февраля, даёт ровно один знак.
func ClassifySign(birthdate time.Time) ZodiacSign {
	month := int(birthdate.Month())
	day := birthdate.Day()

	for _, b := range boundaries {
		if (month == b.startMonth && day >= b.startDay) || (month == b.endMonth && day <= b.endDay) {
			return b.sign
		}
	}
	// Остаётся диапазон 22.12–19.01.
	return Capricorn
}

// Valid сообщает, входит ли тег в закрытое множество из 12 знаков.
func (s ZodiacSign) Valid() bool {
	for _, known := range AllSigns {
		if s == known {
			return true
		}
	}
	return false
}

// ZodiacInfo — справочные данные знака для ответов API.
type ZodiacInfo struct {
	Element string `json:"element"`
	Planet  string `json:"planet"`
	Symbol  string `json:"symbol"`
	Dates   string `json:"dates"`
}

var zodiacInfo = map[ZodiacSign]ZodiacInfo{
	Aries:       {Element: "Fire", Planet: "Mars", Symbol: "♈", Dates: "March 21 - April 19"},
	Taurus:      {Element: "Earth", Planet: "Venus", Symbol: "♉", Dates: "April 20 - May 20"},
	Gemini:      {Element: "Air", Planet: "Mercury", Symbol: "♊", Dates: "May 21 - June 20"},
	Cancer:      {Element: "Water", Planet: "Moon", Symbol: "♋", Dates: "June 21 - July 22"},
	Leo:         {Element: "Fire", Planet: "Sun", Symbol: "♌", Dates: "July 23 - August 22"},
	Virgo:       {Element: "Earth", Planet: "Mercury", Symbol: "♍", Dates: "August 23 - September 22"},
	Libra:       {Element: "Air", Planet: "Venus", Symbol: "♎", Dates: "September 23 - October 22"},
	Scorpio:     {Element: "Water", Planet: "Pluto", Symbol: "♏", Dates: "October 23 - November 21"},
	Sagittarius: {Element: "Fire", Planet: "Jupiter", Symbol: "♐", Dates: "November 22 - December 21"},
	Capricorn:   {Element: "Earth", Planet: "Saturn", Symbol: "♑", Dates: "December 22 - January 19"},
	Aquarius:    {Element: "Air", Planet: "Uranus", Symbol: "♒", Dates: "January 20 - February 18"},
	Pisces:      {Element: "Water", Planet: "Neptune", Symbol: "♓", Dates: "February 19 - March 20"},
}

// SignInfo возвращает справочные данные знака.
func SignInfo(sign ZodiacSign) (ZodiacInfo, bool) {
	info, ok := zodiacInfo[sign]
	return info, ok
}
