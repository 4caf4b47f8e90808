package catalog

// builtinTexts returns the built-in study text database.
func builtinTexts() []Entry {
	return []Entry{
		{
			Name:             "Genesis",
			HebrewName:       "Bereshit",
			Category:         "Torah",
			Subcategory:      "Chumash",
			Popularity:       5,
			Difficulty:       "beginner",
			Tags:             []string{"creation", "patriarchs", "joseph", "abraham"},
			SampleReferences: []string{"Genesis 1", "Genesis 1:1", "Genesis 12", "Genesis 37"},
			Description:      "First book of Torah - Creation and patriarchs",
		},
		{
			Name:             "Exodus",
			HebrewName:       "Shemot",
			Category:         "Torah",
			Subcategory:      "Chumash",
			Popularity:       5,
			Difficulty:       "beginner",
			Tags:             []string{"moses", "passover", "ten commandments", "red sea"},
			SampleReferences: []string{"Exodus 12", "Exodus 20"},
			Description:      "Second book of Torah - Story of Moses and Exodus",
		},
		{
			Name:             "Leviticus",
			HebrewName:       "Vayikra",
			Category:         "Torah",
			Subcategory:      "Chumash",
			Popularity:       3,
			Difficulty:       "intermediate",
			Tags:             []string{"sacrifices", "holiness", "priests"},
			SampleReferences: []string{"Leviticus 19"},
			Description:      "Third book of Torah - Laws of holiness",
		},
		{
			Name:             "Numbers",
			HebrewName:       "Bamidbar",
			Category:         "Torah",
			Subcategory:      "Chumash",
			Popularity:       3,
			Difficulty:       "intermediate",
			Tags:             []string{"wanderings", "census", "desert"},
			SampleReferences: []string{"Numbers 1", "Numbers 13"},
			Description:      "Fourth book of Torah - 40 years in desert",
		},
		{
			Name:             "Deuteronomy",
			HebrewName:       "Devarim",
			Category:         "Torah",
			Subcategory:      "Chumash",
			Popularity:       4,
			Difficulty:       "beginner",
			Tags:             []string{"shema", "law", "moses farewell"},
			SampleReferences: []string{"Deuteronomy 6", "Deuteronomy 6:4"},
			Description:      "Fifth book of Torah - Moses' farewell address",
		},
		{
			Name:             "Isaiah",
			HebrewName:       "Yeshayahu",
			Category:         "Torah",
			Subcategory:      "Neviim",
			Popularity:       4,
			Difficulty:       "advanced",
			Tags:             []string{"prophecy", "messiah", "redemption"},
			SampleReferences: []string{"Isaiah 6", "Isaiah 40", "Isaiah 53"},
			Description:      "Major prophetic book - Redemption and messiah",
		},
		{
			Name:             "Pirkei Avot",
			HebrewName:       "Avot",
			Category:         "Mishnah",
			Subcategory:      "Ethics",
			Popularity:       5,
			Difficulty:       "beginner",
			Tags:             []string{"ethics", "wisdom", "sayings", "fathers"},
			SampleReferences: []string{"Pirkei Avot 1", "Pirkei Avot 1:1"},
			Description:      "Ethics of the Fathers - Wisdom of the sages",
		},
		{
			Name:             "Berakhot",
			HebrewName:       "Berakhot",
			Category:         "Mishnah",
			Subcategory:      "Blessings",
			Popularity:       4,
			Difficulty:       "intermediate",
			Tags:             []string{"blessings", "prayer", "daily practice"},
			SampleReferences: []string{"Berakhot 1", "Berakhot 1:1"},
			Description:      "Laws of blessings and prayers",
		},
		{
			Name:             "Shabbat",
			HebrewName:       "Shabbat",
			Category:         "Mishnah",
			Subcategory:      "Shabbat",
			Popularity:       5,
			Difficulty:       "intermediate",
			Tags:             []string{"shabbat", "laws", "daily practice"},
			SampleReferences: []string{"Shabbat 1", "Shabbat 7"},
			Description:      "Laws of Shabbat observance",
		},
		{
			Name:             "Chayei Adam",
			HebrewName:       "Chayei Adam",
			Category:         "Halacha",
			Subcategory:      "Daily Practice",
			Popularity:       4,
			Difficulty:       "intermediate",
			Tags:             []string{"daily", "practical", "halacha"},
			SampleReferences: []string{"Chayei Adam 12", "Chayei Adam 1"},
			Description:      "Practical guide to daily Jewish law",
		},
		{
			Name:             "Mishnah Berurah",
			HebrewName:       "Mishnah Berurah",
			Category:         "Halacha",
			Subcategory:      "Daily Practice",
			Popularity:       5,
			Difficulty:       "intermediate",
			Tags:             []string{"shulchan aruch", "daily", "practical"},
			SampleReferences: []string{"Mishnah Berurah 1"},
			Description:      "Commentary on daily Jewish practice",
		},
		{
			Name:             "Rashi",
			HebrewName:       "Rashi",
			Category:         "Commentary",
			Subcategory:      "Torah",
			Popularity:       5,
			Difficulty:       "beginner",
			Tags:             []string{"commentary", "french", "explanation"},
			SampleReferences: []string{"Rashi on Genesis", "Rashi on Genesis 1"},
			Description:      "Classic Torah commentary by Rashi (11th century France)",
		},
		{
			Name:             "Ramban",
			HebrewName:       "Nachmanides",
			Category:         "Commentary",
			Subcategory:      "Torah",
			Popularity:       4,
			Difficulty:       "intermediate",
			Tags:             []string{"commentary", "spain", "mysticism"},
			SampleReferences: []string{"Ramban on Genesis", "Ramban on Genesis 1"},
			Description:      "Deep Torah commentary by Nachmanides (13th century Spain)",
		},
		{
			Name:             "Mishneh Torah",
			HebrewName:       "Mishneh Torah",
			Category:         "Halacha",
			Subcategory:      "Code of Law",
			Popularity:       5,
			Difficulty:       "advanced",
			Tags:             []string{"rambam", "law", "codification"},
			SampleReferences: []string{"Mishneh Torah, Laws of Torah Study 1"},
			Description:      "Comprehensive code of Jewish law by Maimonides",
		},
	}
}
