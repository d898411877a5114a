// Package aisle assigns grocery item names to store aisles so list and
// pantry rows can be grouped the way a shopper walks the store.
package aisle

import (
	"sort"
	"strings"
)

const (
	Produce      = "Produce"
	Bakery       = "Bakery"
	Meat         = "Meat & Seafood"
	Dairy        = "Dairy"
	Frozen       = "Frozen"
	Pantry       = "Pantry"
	Snacks       = "Snacks"
	Beverages    = "Beverages"
	Household    = "Household"
	PersonalCare = "Personal Care"
	Other        = "Other"
)

// Aisles lists every aisle in walking order, ending with Other.
var Aisles = []string{Produce, Bakery, Meat, Dairy, Frozen, Pantry, Snacks, Beverages, Household, PersonalCare, Other}

// Keywords are singular. A trailing "s" is accepted everywhere.
var keywords = map[string][]string{
	Produce: {
		"apple", "banana", "orange", "lemon", "lime", "avocado", "tomato", "tomatoes",
		"potato", "potatoes", "sweet potato", "onion", "red onion", "garlic", "lettuce",
		"spinach", "baby spinach", "kale", "broccoli", "cauliflower", "carrot", "celery",
		"cucumber", "bell pepper", "pepper", "mushroom", "corn", "grape", "strawberry",
		"strawberries", "blueberry", "blueberries", "raspberry", "raspberries", "watermelon",
		"pineapple", "mango", "mangoes", "peach", "peaches", "pear", "cilantro", "basil",
		"parsley", "ginger", "jalapeño", "jalapeno", "zucchini", "asparagus", "green bean",
		"scallion", "cabbage", "berries",
	},
	Bakery: {
		"bread", "bagel", "baguette", "bun", "roll", "tortilla", "croissant", "muffin",
		"pita", "sourdough", "english muffin", "hamburger bun",
	},
	Meat: {
		"chicken", "chicken breast", "chicken thigh", "chicken wing", "beef", "ground beef",
		"steak", "pork", "pork chop", "bacon", "sausage", "ham", "turkey", "ground turkey",
		"salmon", "tuna steak", "shrimp", "cod", "tilapia", "lamb", "hot dog", "deli meat",
		"prosciutto", "fish",
	},
	Dairy: {
		"milk", "oat milk", "almond milk", "cheese", "cheddar", "mozzarella", "parmesan",
		"butter", "yogurt", "greek yogurt", "egg", "cream", "heavy cream", "sour cream",
		"cream cheese", "cottage cheese", "half and half", "creamer",
	},
	Frozen: {
		"ice cream", "frozen", "frozen pizza", "pizza", "popsicle", "frozen vegetable",
		"frozen fruit", "waffle", "tater tot",
	},
	Pantry: {
		"rice", "pasta", "spaghetti", "noodle", "flour", "sugar", "brown sugar", "salt",
		"black pepper", "olive oil", "vegetable oil", "vinegar", "soy sauce", "ketchup",
		"mustard", "mayonnaise", "peanut butter", "jam", "honey", "maple syrup", "cereal",
		"oat", "oatmeal", "canned tomatoes", "tomato sauce", "black bean", "kidney bean",
		"chickpea", "lentil", "broth", "chicken broth", "stock", "baking soda",
		"baking powder", "vanilla", "cinnamon", "spice", "soup",
	},
	Snacks: {
		"chips", "tortilla chips", "crackers", "cookie", "pretzel", "popcorn", "granola bar",
		"nut", "almond", "cashew", "trail mix", "chocolate", "candy",
	},
	Beverages: {
		"coffee", "tea", "juice", "orange juice", "soda", "water", "sparkling water",
		"beer", "wine", "kombucha", "lemonade",
	},
	Household: {
		"paper towel", "toilet paper", "napkin", "trash bag", "aluminum foil", "plastic wrap",
		"dish soap", "dishwasher detergent", "laundry detergent", "detergent", "bleach",
		"sponge", "cleaner", "light bulb", "battery", "batteries",
	},
	PersonalCare: {
		"shampoo", "conditioner", "soap", "body wash", "toothpaste", "toothbrush",
		"deodorant", "floss", "lotion", "sunscreen", "razor", "tissue", "cotton swab",
	},
}

type rule struct {
	keyword string
	aisle   string
}

var (
	exact map[string]string
	rules []rule
)

func init() {
	exact = make(map[string]string)
	for _, a := range Aisles {
		for _, kw := range keywords[a] {
			exact[kw] = a
			exact[kw+"s"] = a
			rules = append(rules, rule{keyword: kw, aisle: a})
		}
	}
	// Longest keyword wins, so "peanut butter" beats "butter".
	sort.SliceStable(rules, func(i, j int) bool {
		return len(rules[i].keyword) > len(rules[j].keyword)
	})
}

// Classify returns the aisle for an item name. Matching is case-insensitive:
// the whole name first, then the longest keyword found as whole words.
func Classify(name string) string {
	name = strings.Join(strings.Fields(strings.ToLower(name)), " ")
	if name == "" {
		return Other
	}
	if a, ok := exact[name]; ok {
		return a
	}

	padded := " " + name + " "
	for _, r := range rules {
		if strings.Contains(padded, " "+r.keyword+" ") || strings.Contains(padded, " "+r.keyword+"s ") {
			return r.aisle
		}
	}
	return Other
}
