package cli

import (
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Currency formats minor-unit amounts for display.
type Currency struct {
	Code    string
	unit    currency.Unit
	scale   int
	printer *message.Printer
}

// homeLocale picks the number formatting of each currency's home country.
var homeLocale = map[string]language.Tag{
	"JPY": language.Japanese,
	"USD": language.AmericanEnglish,
	"EUR": language.German,
	"GBP": language.BritishEnglish,
	"CHF": language.German,
	"SEK": language.Swedish,
	"KRW": language.Korean,
	"CNY": language.Chinese,
	"CAD": language.CanadianFrench,
	"AUD": language.MustParse("en-AU"),
}

// GetCurrency returns the formatter for code. Unknown codes format as plain
// two-decimal numbers followed by the code.
func GetCurrency(code string) Currency {
	code = strings.ToUpper(strings.TrimSpace(code))
	c := Currency{Code: code, scale: 2}

	unit, err := currency.ParseISO(code)
	if err == nil {
		c.unit = unit
		c.scale, _ = currency.Standard.Rounding(unit)
	}
	tag, ok := homeLocale[code]
	if !ok {
		tag = language.English
	}
	c.printer = message.NewPrinter(tag)
	return c
}

// Scale is the number of minor digits: 0 for JPY, 2 for EUR.
func (c Currency) Scale() int {
	return c.scale
}

func (c Currency) symbol() string {
	if c.unit == (currency.Unit{}) {
		return c.Code
	}
	return c.printer.Sprint(currency.NarrowSymbol(c.unit))
}

// isPrefix reports whether the symbol goes before the amount. x/text does not
// expose symbol placement, so the list is kept by hand.
func (c Currency) isPrefix() bool {
	switch c.Code {
	case "JPY", "USD", "GBP", "CNY", "KRW", "CAD", "AUD":
		return true
	default:
		return false
	}
}

// Format renders an amount given in minor units.
func (c Currency) Format(minor int64) string {
	if minor < 0 {
		return "-" + c.Format(-minor)
	}
	major := float64(minor)
	for i := 0; i < c.scale; i++ {
		major /= 10
	}
	formatted := c.printer.Sprint(number.Decimal(major,
		number.MinFractionDigits(c.scale),
		number.MaxFractionDigits(c.scale)))
	if c.isPrefix() {
		return c.symbol() + formatted
	}
	return formatted + " " + c.symbol()
}
