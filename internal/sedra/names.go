package sedra

import (
	"strings"

	"golang.org/x/text/cases"
)

// parshiot holds the canonical transliterated names, in reading order.
var parshiot = [...]string{
	"Bereshit",
	"Noach",
	"Lech-Lecha",
	"Vayera",
	"Chayei Sara",
	"Toldot",
	"Vayetzei",
	"Vayishlach",
	"Vayeshev",
	"Miketz",
	"Vayigash",
	"Vayechi",
	"Shemot",
	"Vaera",
	"Bo",
	"Beshalach",
	"Yitro",
	"Mishpatim",
	"Terumah",
	"Tetzaveh",
	"Ki Tisa",
	"Vayakhel",
	"Pekudei",
	"Vayikra",
	"Tzav",
	"Shmini",
	"Tazria",
	"Metzora",
	"Achrei Mot",
	"Kedoshim",
	"Emor",
	"Behar",
	"Bechukotai",
	"Bamidbar",
	"Nasso",
	"Beha'alotcha",
	"Sh'lach",
	"Korach",
	"Chukat",
	"Balak",
	"Pinchas",
	"Matot",
	"Masei",
	"Devarim",
	"Vaetchanan",
	"Eikev",
	"Re'eh",
	"Shoftim",
	"Ki Teitzei",
	"Ki Tavo",
	"Nitzavim",
	"Vayeilech",
	"Ha'azinu",
	"Vezot Haberakhah",
}

// Count is the number of parshiot.
const Count = len(parshiot)

// VezotHaberakhah is read on Simchat Torah, never on a Saturday.
const VezotHaberakhah = Count - 1

// Name returns the canonical name of parsha i, or "" if i is out of range.
func Name(i int) string {
	if i < 0 || i >= Count {
		return ""
	}
	return parshiot[i]
}

// Names returns all canonical names in reading order.
func Names() []string {
	out := make([]string, Count)
	copy(out, parshiot[:])
	return out
}

var byFolded = func() map[string]int {
	m := make(map[string]int, Count)
	for i, name := range parshiot {
		m[foldName(name)] = i
	}
	return m
}()

var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "`", "'", "ʼ", "'")

// foldName maps a name to its lookup key: Unicode case folding, one kind
// of apostrophe, single spaces.
func foldName(name string) string {
	name = apostrophes.Replace(name)
	name = strings.Join(strings.Fields(name), " ")
	return cases.Fold().String(name)
}

// Index returns the position of the named parsha. Matching ignores case
// and accepts curly apostrophes.
func Index(name string) (int, bool) {
	i, ok := byFolded[foldName(name)]
	return i, ok
}
