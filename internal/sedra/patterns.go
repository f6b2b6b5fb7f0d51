package sedra

import (
	"fmt"

	"github.com/zapponejosh/parsha-api/internal/keviah"
)

// week is one Saturday of a reading pattern. Values 0..53 name a single
// parsha, a negative value -p names the doubled parsha p and p+1, and
// values from chagBase up name a festival that displaces the reading.
type week int

const chagBase week = 1000

const (
	chagRoshHashana week = chagBase + iota
	chagYomKippur
	chagSukkot
	chagSukkotShabbat
	chagShminiAtzeret
	chagPesach
	chagPesachShabbat
	chagPesach7
	chagPesach8
	chagShavuot2
)

var chagNames = map[week]string{
	chagRoshHashana:   "Rosh Hashana",
	chagYomKippur:     "Yom Kippur",
	chagSukkot:        "Sukkot",
	chagSukkotShabbat: "Sukkot Shabbat Chol ha-Moed",
	chagShminiAtzeret: "Shmini Atzeret",
	chagPesach:        "Pesach I",
	chagPesachShabbat: "Pesach Shabbat Chol ha-Moed",
	chagPesach7:       "Pesach VII",
	chagPesach8:       "Pesach VIII",
	chagShavuot2:      "Shavuot II",
}

func (w week) isChag() bool { return w >= chagBase }

func (w week) isDouble() bool { return w < 0 }

// parshiot returns the 0-based parsha indexes read on w.
func (w week) parshiot() []int {
	switch {
	case w.isChag():
		return nil
	case w.isDouble():
		return []int{int(-w), int(-w) + 1}
	default:
		return []int{int(w)}
	}
}

// doubles lists the first parsha of every pair that may be read together:
// Vayakhel-Pekudei, Tazria-Metzora, Achrei Mot-Kedoshim, Behar-Bechukotai,
// Chukat-Balak, Matot-Masei and Nitzavim-Vayeilech.
var doubles = map[int]bool{21: true, 26: true, 28: true, 31: true, 38: true, 41: true, 50: true}

func d(p int) week {
	if !doubles[p] {
		panic(fmt.Sprintf("sedra: %d (%s) is not the first of a doubled pair", p, Name(p)))
	}
	return week(-p)
}

// seq returns the single parshiot from..to inclusive.
func seq(from, to int) []week {
	out := make([]week, 0, to-from+1)
	for p := from; p <= to; p++ {
		out = append(out, week(p))
	}
	return out
}

func join(parts ...[]week) []week {
	var out []week
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func w(ws ...week) []week { return ws }

// How the year opens, by the weekday of Rosh Hashana.
var (
	startMonTue = w(51, 52, chagSukkotShabbat)
	startThu    = w(52, chagYomKippur, chagSukkotShabbat)
	startSat    = w(chagRoshHashana, 52, chagSukkot, chagShminiAtzeret)
)

// patterns maps a year type code to its Diaspora reading pattern.
var patterns = map[string][]week{
	// Common years.
	"020": join(startMonTue, seq(0, 20), w(d(21), 23, 24, chagPesachShabbat, 25, d(26), d(28), 30, d(31)),
		seq(33, 40), w(d(41)), seq(43, 49), w(d(50))),
	"022": join(startMonTue, seq(0, 20), w(d(21), 23, 24, chagPesachShabbat, 25, d(26), d(28), 30, d(31)),
		w(33, chagShavuot2), seq(34, 37), w(d(38), 40, d(41)), seq(43, 49), w(d(50))),
	"051": join(startThu, seq(0, 20), w(d(21), 23, 24, chagPesach, chagPesach8, 25, d(26), d(28), 30, d(31)),
		seq(33, 40), w(d(41)), seq(43, 50)),
	"052": join(startThu, seq(0, 24), w(chagPesach7, 25, d(26), d(28), 30, d(31)),
		seq(33, 40), w(d(41)), seq(43, 50)),
	"070": join(startSat, seq(0, 20), w(d(21), 23, 24, chagPesach7, 25, d(26), d(28), 30, d(31)),
		seq(33, 40), w(d(41)), seq(43, 50)),
	"072": join(startSat, seq(0, 20), w(d(21), 23, 24, chagPesachShabbat, 25, d(26), d(28), 30, d(31)),
		seq(33, 40), w(d(41)), seq(43, 49), w(d(50))),

	// Leap years.
	"120": join(startMonTue, seq(0, 27), w(chagPesachShabbat), seq(28, 33), w(chagShavuot2),
		seq(34, 37), w(d(38), 40, d(41)), seq(43, 49), w(d(50))),
	"122": join(startMonTue, seq(0, 27), w(chagPesach, chagPesach8), seq(28, 40), w(d(41)), seq(43, 50)),
	"150": join(startThu, seq(0, 28), w(chagPesach7), seq(29, 50)),
	"152": join(startThu, seq(0, 28), w(chagPesachShabbat), seq(29, 49), w(d(50))),
	"170": join(startSat, seq(0, 27), w(chagPesachShabbat), seq(28, 40), w(d(41)), seq(43, 49), w(d(50))),
	"172": join(startSat, seq(0, 27), w(chagPesachShabbat), seq(28, 33), w(chagShavuot2),
		seq(34, 37), w(d(38), 40, d(41)), seq(43, 49), w(d(50))),
}

// israelPatterns holds the patterns that differ in Israel. They exist
// only where Pesach begins on Thursday or Saturday: the eighth day of
// Pesach or the second day of Shavuot then falls on a Saturday in the
// Diaspora only, and Israel reads ahead until a doubled pair lets the
// Diaspora catch up.
var israelPatterns = map[string][]week{
	"051": join(startThu, seq(0, 20), w(d(21), 23, 24, chagPesach, 25, d(26), d(28)), seq(30, 40),
		w(d(41)), seq(43, 50)),
	"120": join(startMonTue, seq(0, 27), w(chagPesachShabbat), seq(28, 40), w(d(41)), seq(43, 49), w(d(50))),
	"122": join(startMonTue, seq(0, 27), w(chagPesach), seq(28, 50)),
}

// Year types whose pattern is identical to another's.
var (
	aliases = map[string]string{
		"031": "022",
		"131": "122",
	}
	israelAliases = map[string]string{
		"022": "020",
		"031": "020",
		"131": "122",
		"172": "170",
	}
)

// patternFor resolves the reading pattern of a year type. Every reachable
// year type has one; a miss means the tables above are broken.
func patternFor(t keviah.YearType, il bool) []week {
	code := t.Code()
	if il {
		c := code
		if alias, ok := israelAliases[c]; ok {
			c = alias
		}
		if p, ok := israelPatterns[c]; ok {
			return p
		}
		code = c
	}
	if alias, ok := aliases[code]; ok {
		code = alias
	}
	if p, ok := patterns[code]; ok {
		return p
	}
	panic(fmt.Sprintf("sedra: no reading pattern for year type %s (code %s, il=%t)", t, t.Code(), il))
}
