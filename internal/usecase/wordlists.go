package usecase

import (
	"regexp"
	"sort"
	"strings"
)

// WordListVersion identifies the revision of the curated tables below.
// Bump it whenever a table changes so match differences can be traced.
const WordListVersion = "2024.3"

// measurementUnits are stripped by both cleaning passes
var measurementUnits = []string{
	"cup", "cups", "c",
	"tablespoon", "tablespoons", "tbsp", "tbsps", "tbs", "tbl", "tbls",
	"teaspoon", "teaspoons", "tsp", "tsps",
	"ounce", "ounces", "oz", "fl",
	"pound", "pounds", "lb", "lbs",
	"gram", "grams", "g", "kilogram", "kilograms", "kg",
	"milliliter", "milliliters", "millilitre", "millilitres", "ml",
	"liter", "liters", "litre", "litres", "l",
	"quart", "quarts", "qt", "pint", "pints", "pt",
	"gallon", "gallons", "gal",
	"pinch", "pinches", "dash", "dashes",
}

// containerUnits are counted pieces and packaging, stripped only by the heavy pass
var containerUnits = []string{
	"can", "cans", "jar", "jars", "bottle", "bottles", "bag", "bags",
	"box", "boxes", "package", "packages", "pkg", "packet", "packets",
	"container", "containers", "envelope", "envelopes", "carton", "cartons",
	"clove", "cloves", "slice", "slices", "piece", "pieces", "stick", "sticks",
	"bunch", "bunches", "sprig", "sprigs", "handful", "handfuls",
	"head", "heads", "stalk", "stalks", "strip", "strips", "sheet", "sheets",
	"drop", "drops", "scoop", "scoops", "inch", "inches", "cm",
}

// preparationWords are prep verbs, state adjectives, and serving instructions
var preparationWords = []string{
	// Prep
	"diced", "chopped", "minced", "sliced", "grated", "shredded", "crushed",
	"peeled", "seeded", "deseeded", "cored", "pitted", "trimmed", "halved", "quartered",
	"cubed", "julienned", "mashed", "melted", "softened", "beaten", "whisked",
	"divided", "drained", "rinsed", "thawed", "toasted", "cooked", "uncooked",
	"packed", "sifted", "cut", "torn", "zested", "juiced", "squeezed", "stemmed",
	"finely", "coarsely", "roughly", "thinly", "thickly", "freshly", "lightly", "well",
	// State and size
	"fresh", "frozen", "dried", "canned", "raw", "ripe", "large", "medium", "small",
	"extra", "jumbo", "boneless", "skinless", "lean", "thin", "thick", "room",
	"temperature", "reduced", "sodium", "low", "fat", "free", "organic", "unsalted",
	"good", "quality", "homemade", "store", "bought", "prepared", "plain",
	// Serving instructions
	"optional", "taste", "needed", "serving", "servings", "garnish", "plus", "about",
	"approximately", "approx", "more", "less", "additional", "desired", "such",
	"like", "if", "as", "for", "to", "into", "of", "the", "a", "an",
}

// positionalStopWords are dropped before the positional fallback picks head nouns
var positionalStopWords = map[string]bool{
	"and": true, "or": true, "the": true, "a": true, "an": true, "of": true,
	"with": true, "for": true, "to": true, "in": true, "on": true, "at": true,
	"into": true, "from": true, "by": true, "plus": true, "some": true, "any": true,
	"each": true, "your": true, "other": true, "then": true,
	// Colors and generic descriptors
	"red": true, "green": true, "yellow": true, "white": true, "black": true,
	"brown": true, "purple": true, "golden": true, "hot": true, "cold": true,
	"warm": true, "sweet": true, "big": true, "little": true, "light": true,
	"dark": true, "heavy": true, "fine": true, "coarse": true, "best": true, "new": true,
}

// knownTwoWordIngredients are scanned as literals in the heavy-cleaned text,
// most specific first.
var knownTwoWordIngredients = []string{
	"chicken broth", "beef broth", "vegetable broth", "chicken stock", "beef stock",
	"vegetable stock", "olive oil", "vegetable oil", "canola oil", "coconut oil",
	"sesame oil", "coconut milk", "almond milk", "garlic powder", "onion powder",
	"chili powder", "curry powder", "baking soda", "baking powder", "brown sugar",
	"powdered sugar", "maple syrup", "soy sauce", "fish sauce", "hot sauce",
	"worcestershire sauce", "tomato paste", "tomato sauce", "heavy cream", "sour cream",
	"cream cheese", "cottage cheese", "parmesan cheese", "cheddar cheese", "feta cheese",
	"greek yogurt", "brown rice", "white rice", "black beans", "kidney beans",
	"green beans", "pinto beans", "bell pepper", "cayenne pepper", "black pepper",
	"green onion", "red onion", "sweet potato", "lemon juice", "lime juice",
	"orange juice", "apple cider", "cider vinegar", "balsamic vinegar", "rice vinegar",
	"white wine", "red wine", "ground beef", "ground turkey", "ground pork",
	"chicken breast", "chicken thigh", "pork chop", "bay leaf", "vanilla extract",
	"peanut butter", "egg yolk", "egg white", "pine nut", "sesame seed",
}

// knownSingleWordIngredients are scanned after the two-word literals.
// Proteins and staples come before aromatics and seasonings, which are
// usually secondary in a line.
var knownSingleWordIngredients = []string{
	// Proteins
	"chicken", "beef", "pork", "lamb", "turkey", "bacon", "sausage", "ham",
	"shrimp", "salmon", "tuna", "cod", "tilapia", "crab", "scallop", "tofu", "egg",
	// Grains and staples
	"rice", "quinoa", "pasta", "spaghetti", "noodle", "couscous", "oats", "barley",
	"bread", "tortilla", "flour", "cornmeal", "lentil", "chickpea",
	// Dairy
	"butter", "milk", "cream", "cheese", "yogurt", "mozzarella", "parmesan", "ricotta",
	// Vegetables
	"tomato", "potato", "carrot", "celery", "spinach", "kale", "lettuce", "cabbage",
	"broccoli", "cauliflower", "zucchini", "cucumber", "mushroom", "eggplant", "corn",
	"pea", "asparagus", "onion", "shallot", "leek", "scallion", "avocado", "jalapeno",
	// Fruit
	"lemon", "lime", "orange", "apple", "banana", "strawberry", "blueberry",
	"raspberry", "cherry", "mango", "pineapple", "peach", "pear", "grape", "raisin",
	// Nuts
	"walnut", "almond", "pecan", "cashew", "peanut", "pistachio",
	// Aromatics, herbs, spices
	"garlic", "ginger", "basil", "oregano", "thyme", "rosemary", "parsley", "cilantro",
	"mint", "dill", "sage", "cumin", "paprika", "cinnamon", "nutmeg", "turmeric",
	"coriander", "cardamom",
	// Pantry
	"honey", "sugar", "vinegar", "mustard", "mayonnaise", "ketchup", "salsa",
	"water", "salt", "pepper",
}

// literalPattern is a curated literal with its compiled, plural-tolerant matcher
type literalPattern struct {
	literal string
	pattern *regexp.Regexp
}

// Tables compiled once at process start
var (
	heavyStopWords     = buildStopWordSet(measurementUnits, containerUnits, preparationWords)
	lightUnitPattern   = compileWordAlternation(measurementUnits)
	quantityUnitRegex  = compileQuantityUnitPattern(append(append([]string{}, measurementUnits...), containerUnits...))
	twoWordLiterals    = compileLiterals(knownTwoWordIngredients)
	singleWordLiterals = compileLiterals(knownSingleWordIngredients)
)

func buildStopWordSet(lists ...[]string) map[string]bool {
	set := make(map[string]bool)
	for _, list := range lists {
		for _, w := range list {
			set[w] = true
		}
	}
	return set
}

// byLengthDesc orders alternation branches so longer units are preferred
func byLengthDesc(words []string) []string {
	sorted := append([]string(nil), words...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	quoted := make([]string, len(sorted))
	for i, w := range sorted {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return quoted
}

func compileWordAlternation(words []string) *regexp.Regexp {
	return regexp.MustCompile(`\b(?:` + strings.Join(byLengthDesc(words), "|") + `)\b`)
}

// compileQuantityUnitPattern matches "2 cups", "1.5 oz", "1 1/2 tsp", "1-2 cups",
// "2 to 3 lbs", "½ cup", and "1½ tbsp".
func compileQuantityUnitPattern(units []string) *regexp.Regexp {
	const fractions = `½⅓⅔¼¾⅕⅖⅗⅘⅙⅚⅛⅜⅝⅞`
	qty := `(?:\d+(?:[.,/]\d+)?(?:\s+\d+/\d+)?[` + fractions + `]?|[` + fractions + `])`
	rangeTail := `(?:\s*(?:-|–|to)\s*` + qty + `)?`
	return regexp.MustCompile(qty + rangeTail + `\s*(?:` + strings.Join(byLengthDesc(units), "|") + `)\b`)
}

func compileLiterals(literals []string) []literalPattern {
	out := make([]literalPattern, 0, len(literals))
	for _, literal := range literals {
		words := strings.Fields(literal)
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		words[len(words)-1] = pluralTolerant(words[len(words)-1])
		out = append(out, literalPattern{
			literal: literal,
			pattern: regexp.MustCompile(`\b` + strings.Join(words, `\s+`) + `\b`),
		})
	}
	return out
}

// pluralTolerant lets a literal's final word match its plural spellings
func pluralTolerant(word string) string {
	switch {
	case strings.HasSuffix(word, "leaf"):
		return strings.TrimSuffix(word, "leaf") + "(?:leaf|leaves)"
	case len(word) > 2 && strings.HasSuffix(word, "y") && !isVowel(word[len(word)-2]):
		return strings.TrimSuffix(word, "y") + "(?:y|ies)"
	case strings.HasSuffix(word, "s"):
		return word
	default:
		return word + "(?:e?s)?"
	}
}

func isVowel(b byte) bool {
	return strings.IndexByte("aeiou", b) >= 0
}
