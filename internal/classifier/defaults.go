package classifier

import "NewsAggregator/internal/domain"

// DefaultKeywords holds the Bulgarian keyword lists used when the
// configuration does not provide its own.
func DefaultKeywords() Keywords {
	return Keywords{
		domain.CategoryPolitics: {
			"партия", "война", "политика", "избори", "парламент", "правителство", "министър", "президент",
			"депутат", "закон", "конституция", "опозиция", "коалиция", "дипломация", "санкции", "външна политика",
			"вътрешна политика", "демокрация", "реформа", "протест", "гласуване", "корупция", "евроинтеграция",
			"политически", "партии", "избиратели", "мирен договор", "ДПС", "Герб", "Възраждане",
		},
		domain.CategorySports: {
			"футбол", "лудогорец", "левски", "цска", "спорт", "шампион", "мач", "турнир",
			"баскетбол", "волейбол", "тенис", "олимпиада", "световно първенство", "купа", "трансфер",
			"атлетика", "плуване", "бокс", "формула 1", "колоездене", "гимнастика", "хокей", "ски",
			"равенство", "играе", "хеттрик", "треньор",
		},
		domain.CategoryOthers: {
			"култура", "изкуство", "музика", "кино", "театър", "литература", "технологии", "наука",
			"образование", "здраве", "медицина", "екология", "климат", "икономика", "бизнес", "финанси",
			"мода", "кулинария", "пътуване", "туризъм", "религия", "история", "археология", "космос",
		},
	}
}
