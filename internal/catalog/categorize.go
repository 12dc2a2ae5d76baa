// Package catalog assigns grocery categories to catalog items.
package catalog

import "strings"

// Categories in display order.
const (
	CategoryProduce      = "Produce"
	CategoryDairyEggs    = "Dairy & Eggs"
	CategoryMeatSeafood  = "Meat & Seafood"
	CategoryBakery       = "Bakery"
	CategoryPantry       = "Pantry"
	CategoryFrozen       = "Frozen"
	CategoryBeverages    = "Beverages"
	CategorySnacks       = "Snacks"
	CategoryHousehold    = "Household"
	CategoryPersonalCare = "Personal Care"
	CategoryOther        = "Other"
)

// Categories lists every category Categorize can return.
var Categories = []string{
	CategoryProduce, CategoryDairyEggs, CategoryMeatSeafood, CategoryBakery, CategoryPantry,
	CategoryFrozen, CategoryBeverages, CategorySnacks, CategoryHousehold, CategoryPersonalCare,
	CategoryOther,
}

// Categorize returns the grocery category for the given item name.
// Names may be English or Malay. It performs case-insensitive matching:
// exact match first, then substring match. Falls back to "Other".
func Categorize(itemName string) string {
	name := strings.ToLower(strings.Join(strings.Fields(itemName), " "))
	if name == "" {
		return CategoryOther
	}

	if cat, ok := exactMatch[name]; ok {
		return cat
	}

	for _, entry := range substringMatches {
		if strings.Contains(name, entry.keyword) {
			return entry.category
		}
	}

	return CategoryOther
}

var exactMatch = map[string]string{
	// Produce
	"sawi":       CategoryProduce,
	"kangkung":   CategoryProduce,
	"bayam":      CategoryProduce,
	"kobis":      CategoryProduce,
	"kentang":    CategoryProduce,
	"tomato":     CategoryProduce,
	"timun":      CategoryProduce,
	"halia":      CategoryProduce,
	"serai":      CategoryProduce,
	"pisang":     CategoryProduce,
	"epal":       CategoryProduce,
	"oren":       CategoryProduce,
	"betik":      CategoryProduce,
	"tembikai":   CategoryProduce,
	"durian":     CategoryProduce,
	"rambutan":   CategoryProduce,
	"apple":      CategoryProduce,
	"banana":     CategoryProduce,
	"potato":     CategoryProduce,
	"onion":      CategoryProduce,
	"garlic":     CategoryProduce,
	"cabbage":    CategoryProduce,
	"spinach":    CategoryProduce,
	"chilli":     CategoryProduce,
	"ginger":     CategoryProduce,
	"lemongrass": CategoryProduce,

	// Dairy & Eggs
	"susu":       CategoryDairyEggs,
	"telur":      CategoryDairyEggs,
	"telur ayam": CategoryDairyEggs,
	"mentega":    CategoryDairyEggs,
	"keju":       CategoryDairyEggs,
	"dadih":      CategoryDairyEggs,
	"milk":       CategoryDairyEggs,
	"eggs":       CategoryDairyEggs,
	"butter":     CategoryDairyEggs,
	"cheese":     CategoryDairyEggs,
	"yogurt":     CategoryDairyEggs,

	// Meat & Seafood
	"ayam":    CategoryMeatSeafood,
	"daging":  CategoryMeatSeafood,
	"ikan":    CategoryMeatSeafood,
	"udang":   CategoryMeatSeafood,
	"sotong":  CategoryMeatSeafood,
	"ketam":   CategoryMeatSeafood,
	"kambing": CategoryMeatSeafood,
	"chicken": CategoryMeatSeafood,
	"beef":    CategoryMeatSeafood,
	"mutton":  CategoryMeatSeafood,
	"fish":    CategoryMeatSeafood,
	"prawns":  CategoryMeatSeafood,
	"squid":   CategoryMeatSeafood,

	// Bakery
	"roti":  CategoryBakery,
	"bread": CategoryBakery,
	"bun":   CategoryBakery,
	"kek":   CategoryBakery,

	// Pantry
	"beras":        CategoryPantry,
	"gula":         CategoryPantry,
	"garam":        CategoryPantry,
	"tepung":       CategoryPantry,
	"minyak masak": CategoryPantry,
	"kicap":        CategoryPantry,
	"santan":       CategoryPantry,
	"mee":          CategoryPantry,
	"bihun":        CategoryPantry,
	"kuey teow":    CategoryPantry,
	"sardin":       CategoryPantry,
	"rice":         CategoryPantry,
	"sugar":        CategoryPantry,
	"salt":         CategoryPantry,
	"flour":        CategoryPantry,
	"cooking oil":  CategoryPantry,
	"soy sauce":    CategoryPantry,
	"noodles":      CategoryPantry,

	// Frozen
	"aiskrim":   CategoryFrozen,
	"ice cream": CategoryFrozen,
	"nugget":    CategoryFrozen,

	// Beverages
	"teh":         CategoryBeverages,
	"kopi":        CategoryBeverages,
	"milo":        CategoryBeverages,
	"air mineral": CategoryBeverages,
	"jus":         CategoryBeverages,
	"tea":         CategoryBeverages,
	"coffee":      CategoryBeverages,
	"water":       CategoryBeverages,
	"juice":       CategoryBeverages,

	// Snacks
	"biskut":    CategorySnacks,
	"kerepek":   CategorySnacks,
	"coklat":    CategorySnacks,
	"keropok":   CategorySnacks,
	"biscuits":  CategorySnacks,
	"chips":     CategorySnacks,
	"chocolate": CategorySnacks,

	// Household
	"sabun basuh":  CategoryHousehold,
	"pencuci":      CategoryHousehold,
	"peluntur":     CategoryHousehold,
	"detergent":    CategoryHousehold,
	"dish soap":    CategoryHousehold,
	"toilet paper": CategoryHousehold,
	"trash bags":   CategoryHousehold,

	// Personal Care
	"sabun":      CategoryPersonalCare,
	"syampu":     CategoryPersonalCare,
	"ubat gigi":  CategoryPersonalCare,
	"berus gigi": CategoryPersonalCare,
	"tisu":       CategoryPersonalCare,
	"lampin":     CategoryPersonalCare,
	"soap":       CategoryPersonalCare,
	"shampoo":    CategoryPersonalCare,
	"toothpaste": CategoryPersonalCare,
	"diapers":    CategoryPersonalCare,
}

type substringEntry struct {
	keyword  string
	category string
}

// Ordered with longer/more-specific keywords first for deterministic priority.
// Eggs precede meat so that "telur ayam" is not read as chicken.
var substringMatches = []substringEntry{
	{"eggplant", CategoryProduce},
	{"terung", CategoryProduce},

	// Household before personal care: "sabun basuh" is laundry soap
	{"sabun basuh", CategoryHousehold},
	{"sabun pinggan", CategoryHousehold},
	{"pencuci", CategoryHousehold},
	{"peluntur", CategoryHousehold},
	{"dish soap", CategoryHousehold},
	{"laundry", CategoryHousehold},
	{"detergent", CategoryHousehold},
	{"toilet paper", CategoryHousehold},
	{"beg sampah", CategoryHousehold},

	// Frozen
	{"aiskrim", CategoryFrozen},
	{"ice cream", CategoryFrozen},
	{"sejuk beku", CategoryFrozen},
	{"frozen", CategoryFrozen},
	{"nugget", CategoryFrozen},

	// Dairy & Eggs
	{"telur", CategoryDairyEggs},
	{"egg", CategoryDairyEggs},
	{"susu pekat", CategoryDairyEggs},
	{"susu", CategoryDairyEggs},
	{"milk", CategoryDairyEggs},
	{"mentega", CategoryDairyEggs},
	{"butter", CategoryDairyEggs},
	{"keju", CategoryDairyEggs},
	{"cheese", CategoryDairyEggs},
	{"yogurt", CategoryDairyEggs},

	// Meat & Seafood
	{"ayam", CategoryMeatSeafood},
	{"daging", CategoryMeatSeafood},
	{"ikan", CategoryMeatSeafood},
	{"udang", CategoryMeatSeafood},
	{"sotong", CategoryMeatSeafood},
	{"ketam", CategoryMeatSeafood},
	{"kambing", CategoryMeatSeafood},
	{"chicken", CategoryMeatSeafood},
	{"beef", CategoryMeatSeafood},
	{"steak", CategoryMeatSeafood},
	{"mutton", CategoryMeatSeafood},
	{"fish", CategoryMeatSeafood},
	{"prawn", CategoryMeatSeafood},

	// Bakery
	{"roti", CategoryBakery},
	{"bread", CategoryBakery},
	{"kek", CategoryBakery},

	// Pantry
	{"minyak masak", CategoryPantry},
	{"minyak", CategoryPantry},
	{"cooking oil", CategoryPantry},
	{"beras", CategoryPantry},
	{"rice", CategoryPantry},
	{"tepung", CategoryPantry},
	{"flour", CategoryPantry},
	{"gula", CategoryPantry},
	{"sugar", CategoryPantry},
	{"garam", CategoryPantry},
	{"kicap", CategoryPantry},
	{"sauce", CategoryPantry},
	{"santan", CategoryPantry},
	{"rempah", CategoryPantry},
	{"bihun", CategoryPantry},
	{"mee", CategoryPantry},
	{"noodle", CategoryPantry},
	{"sardin", CategoryPantry},

	// Beverages
	{"air mineral", CategoryBeverages},
	{"kopi", CategoryBeverages},
	{"coffee", CategoryBeverages},
	{"milo", CategoryBeverages},
	{"teh", CategoryBeverages},
	{"tea", CategoryBeverages},
	{"jus", CategoryBeverages},
	{"juice", CategoryBeverages},
	{"minuman", CategoryBeverages},
	{"drink", CategoryBeverages},

	// Snacks
	{"biskut", CategorySnacks},
	{"biscuit", CategorySnacks},
	{"kerepek", CategorySnacks},
	{"keropok", CategorySnacks},
	{"coklat", CategorySnacks},
	{"chocolate", CategorySnacks},
	{"chip", CategorySnacks},

	// Personal Care
	{"ubat gigi", CategoryPersonalCare},
	{"berus gigi", CategoryPersonalCare},
	{"toothpaste", CategoryPersonalCare},
	{"syampu", CategoryPersonalCare},
	{"shampoo", CategoryPersonalCare},
	{"sabun", CategoryPersonalCare},
	{"soap", CategoryPersonalCare},
	{"tisu", CategoryPersonalCare},
	{"tissue", CategoryPersonalCare},
	{"lampin", CategoryPersonalCare},

	// Produce
	{"bawang", CategoryProduce},
	{"cili", CategoryProduce},
	{"chilli", CategoryProduce},
	{"sayur", CategoryProduce},
	{"sawi", CategoryProduce},
	{"kangkung", CategoryProduce},
	{"bayam", CategoryProduce},
	{"kobis", CategoryProduce},
	{"kentang", CategoryProduce},
	{"tomato", CategoryProduce},
	{"timun", CategoryProduce},
	{"halia", CategoryProduce},
	{"pisang", CategoryProduce},
	{"buah", CategoryProduce},
	{"onion", CategoryProduce},
	{"potato", CategoryProduce},
	{"vegetable", CategoryProduce},
	{"fruit", CategoryProduce},
}
