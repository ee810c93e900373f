package match

import (
	"context"
	"math"
	"strings"
)

const (
	// directThreshold is the similarity below which themes are not compared.
	directThreshold = 0.1
	// themeThreshold is the minimum shared weight for a theme to be reported.
	themeThreshold = 0.05

	directWeight   = 0.6
	thematicWeight = 0.4
)

// LexicalMatcher scores songs offline with term-frequency cosine similarity
// and keyword theme signatures. It needs no network and is the default.
type LexicalMatcher struct{}

// NewLexicalMatcher creates a lexical matcher
func NewLexicalMatcher() *LexicalMatcher {
	return &LexicalMatcher{}
}

// Name returns the provider name
func (m *LexicalMatcher) Name() string {
	return "lexical"
}

// IsAvailable always reports true
func (m *LexicalMatcher) IsAvailable(context.Context) bool {
	return true
}

// Match scores every song. Songs whose direct similarity reaches
// directThreshold are blended 0.6 direct / 0.4 thematic and report the
// themes they share with the passage; the rest keep their direct score.
func (m *LexicalMatcher) Match(ctx context.Context, req Request) (*Response, error) {
	themes := req.Themes
	if len(themes) == 0 {
		themes = DefaultThemes
	}

	passage := newTermVector(req.Passage)
	passageSig := themeSignature(passage, themes)

	matches := make([]SongMatch, 0, len(req.Songs))
	for _, song := range req.Songs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		lyrics := newTermVector(song.Lyrics)
		direct := passage.cosine(lyrics)

		score := direct
		shared := []string{}
		if direct >= directThreshold {
			songSig := themeSignature(lyrics, themes)
			thematic := 0.0
			for i := range themes {
				contribution := passageSig[i] * songSig[i]
				thematic += contribution
				if contribution > themeThreshold {
					shared = append(shared, themes[i])
				}
			}
			score = directWeight*direct + thematicWeight*thematic
		}

		matches = append(matches, SongMatch{
			Name:   song.Name,
			Score:  math.Round(score*10000) / 10000,
			Themes: shared,
		})
	}

	SortMatches(matches)
	return &Response{Matches: matches, Model: "lexical"}, nil
}

type termVector struct {
	counts map[string]float64
	total  float64
	norm   float64
}

func newTermVector(text string) termVector {
	v := termVector{counts: make(map[string]float64)}
	for line := range strings.Lines(text) {
		line = strings.ToLower(line)
		words := strings.Fields(line)
		if strings.Contains(line, "three in one") {
			words = append(words, "trinity")
		}
		for _, w := range words {
			w = foldWord(w)
			if w == "" || stopwords[w] {
				continue
			}
			v.counts[w]++
			v.total++
		}
	}
	for _, c := range v.counts {
		v.norm += c * c
	}
	v.norm = math.Sqrt(v.norm)
	return v
}

func (v termVector) cosine(o termVector) float64 {
	if v.norm == 0 || o.norm == 0 {
		return 0
	}
	small, large := v, o
	if len(small.counts) > len(large.counts) {
		small, large = large, small
	}
	dot := 0.0
	for term, c := range small.counts {
		dot += c * large.counts[term]
	}
	return dot / (v.norm * o.norm)
}

// themeSignature weighs each theme by the share of the text's terms that are
// theme keywords, normalized to unit length.
func themeSignature(v termVector, themes []string) []float64 {
	sig := make([]float64, len(themes))
	if v.total == 0 {
		return sig
	}
	norm := 0.0
	for i, theme := range themes {
		for _, kw := range themeKeywords[theme] {
			sig[i] += v.counts[kw]
		}
		sig[i] /= v.total
		norm += sig[i] * sig[i]
	}
	if norm == 0 {
		return sig
	}
	norm = math.Sqrt(norm)
	for i := range sig {
		sig[i] /= norm
	}
	return sig
}

// foldWord lowercases, strips everything but letters, digits and
// apostrophes, and collapses spelling variants onto one term.
func foldWord(w string) string {
	w = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '\'':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return -1
	}, w)
	if folded, ok := wordFolds[w]; ok {
		return folded
	}
	return w
}

var wordFolds = map[string]string{
	"son": "jesus", "christ": "jesus", "messiah": "jesus",
	"pow'r": "power", "powers": "power", "pow'rs": "power",
	"heav'n": "heaven", "heavens": "heaven", "heaven's": "heaven", "heav'n's": "heaven",
	"cause": "because", "'cause": "because",
	"'till": "until", "till": "until", "'til": "until", "til": "until",
	"blessing": "bless", "blessed": "bless",
	"sins": "sin", "sinful": "sin", "sinfulness": "sin", "sinner": "sin", "sinners": "sin",
	"judged": "judge", "judgement": "judge",
	"humbled": "humble", "humbleness": "humble",
	"savior": "saviour",
	"joyous": "joy", "joyful": "joy", "rejoice": "joy", "rejoicing": "joy",
	"forgive": "forgiveness",
}

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true, "be": true,
	"but": true, "by": true, "for": true, "from": true, "he": true, "her": true, "him": true,
	"his": true, "i": true, "in": true, "is": true, "it": true, "me": true, "my": true,
	"not": true, "of": true, "on": true, "or": true, "our": true, "shall": true, "she": true,
	"so": true, "that": true, "the": true, "thee": true, "they": true, "thou": true, "thy": true,
	"to": true, "unto": true, "us": true, "was": true, "we": true, "which": true, "will": true,
	"with": true, "ye": true, "you": true, "your": true,
}

// themeKeywords lists folded terms that signal each theme.
var themeKeywords = map[string][]string{
	"Trust and Guidance":    {"trust", "guide", "lead", "leads", "leadeth", "path", "paths", "shepherd", "follow", "way"},
	"Restoration and Peace": {"restore", "restoreth", "restores", "peace", "rest", "still", "heal", "renew", "quiet", "calm"},
	"Wrath and Judgment":    {"wrath", "judge", "anger", "punish", "condemn", "condemned", "destroy", "vengeance", "perish"},
	"Jesus":                 {"jesus", "lord", "lamb", "cross", "saviour", "emmanuel"},
	"Resurrection":          {"risen", "rise", "rose", "resurrection", "tomb", "alive", "raised", "grave"},
	"Love":                  {"love", "loved", "loves", "beloved", "loving", "lovingkindness"},
	"Faith":                 {"faith", "believe", "believeth", "believed", "faithful"},
	"Hope":                  {"hope", "wait", "expectation", "anchor"},
	"Power":                 {"power", "mighty", "strength", "strong", "almighty", "might"},
	"Joy":                   {"joy", "glad", "gladness", "sing", "delight", "praise"},
	"Victory":               {"victory", "overcome", "triumph", "conquer", "won", "defeated"},
	"Creation":              {"create", "created", "creation", "beginning", "earth", "made", "formed", "light", "world"},
	"Suffering":             {"suffer", "suffering", "pain", "sorrow", "sorrows", "tears", "affliction", "grief", "trouble"},
	"Grace":                 {"grace", "gracious", "favour", "gift", "amazing"},
	"Kingdom":               {"kingdom", "king", "reign", "reigns", "rule"},
	"Sin":                   {"sin", "transgression", "iniquity", "wicked", "evil", "wretch", "lost"},
	"Spirit":                {"spirit", "ghost", "breath", "wind", "fire"},
	"Trinity":               {"trinity", "father", "persons", "godhead"},
	"Eternity":              {"eternal", "everlasting", "forever", "ever", "eternity", "endless"},
	"Humble":                {"humble", "lowly", "meek", "servant"},
	"Wisdom":                {"wisdom", "wise", "understanding", "knowledge", "counsel"},
	"Mercy":                 {"mercy", "merciful", "compassion", "forgiveness", "pity"},
	"Heaven":                {"heaven", "glory", "paradise", "above"},
	"Throne":                {"throne", "crown", "seated", "majesty"},
	"Covenant":              {"covenant", "promise", "oath", "testament", "law"},
}
