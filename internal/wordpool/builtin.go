package wordpool

// DefaultID names the pool used when a segment references an unknown pool.
const DefaultID = "default"

var builtinPools = map[string][]string{
	DefaultID: {"train", "station", "keyboard", "program", "ねこ", "ひこうき", "りんご"},
	"easy":    {"cat", "dog", "sun", "moon", "tree", "sky", "ai", "ka", "neko", "inu", "sora", "hana"},
	"medium":  {"orange", "guitar", "sushi", "ramen", "kawaii", "tokyo", "sakura", "sensei", "samurai", "river"},
	"hard": {
		"javascript", "responsibility", "extraordinary", "konnichiwa", "arigatou",
		"mountain", "computer", "keyboard", "nihongo", "generation",
	},
	"kana":  {"ねこ", "いぬ", "そら", "はな", "さくら", "すし", "えき", "でんしゃ"},
	"mixed": {"sushi", "ramen", "さくら", "tokyo", "らーめん", "kyoto", "ありがとう", "station", "きっぷ"},
	"long": {
		"responsibility", "extraordinary", "generation", "transportation", "announcement",
		"destination", "connection", "information", "reservation", "countryside",
	},
}
