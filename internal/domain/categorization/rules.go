package categorization

import (
	"github.com/FACorreiaa/statement-tracker/internal/domain/statement"
)

// wordEnd is a Unicode-aware replacement for \b after a token. RE2's \b only
// knows ASCII word characters, so "МТС\b" would never match.
const wordEnd = `(?:[^\p{L}\p{N}_]|$)`

// Pattern is one alternative of a rule. NotFollowedBy excludes matches whose
// remaining text starts with the given expression.
type Pattern struct {
	Expr          string
	NotFollowedBy string
}

// Rule maps description patterns to a category. Patterns are matched
// case-insensitively anywhere in the description.
type Rule struct {
	Category statement.Category
	Patterns []Pattern
}

func alts(exprs ...string) []Pattern {
	out := make([]Pattern, len(exprs))
	for i, e := range exprs {
		out[i] = Pattern{Expr: e}
	}
	return out
}

func concat(groups ...[]Pattern) []Pattern {
	var out []Pattern
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// DefaultRules returns the built-in rule table. Order is significant: the
// first matching rule wins, so brand rules precede generic keyword rules.
// "METRO C..." (Metro Cash & Carry) is claimed by groceries and excluded from
// the transit rule.
func DefaultRules() []Rule {
	return []Rule{
		{
			Category: statement.Groceries,
			Patterns: alts(
				`DIXY`, `ДИКСИ`,
				`LENTA`, `ЛЕНТА`,
				`MAGNIT`, `МАГНИТ`,
				`PYATEROCHKA`, `ПЯТЕРОЧКА`,
				`PEREKRESTOK`, `PEREKRYOSTOK`, `ПЕРЕКРЕСТОК`, `ПЕРЕКРЁСТОК`,
				`VKUSVILL`, `ВКУСВИЛЛ`,
				`АШАН`, `AUCHAN`,
				`METRO\s*C`, `МЕТРО\s*К`,
				`OKEY`, `ОКЕЙ`,
				`SPAR`, `СПАР`,
				`BILLA`,
				`АЗБУКА\s*ВКУСА`, `AZBUKA\s*VKUSA`,
				`GLOBUS`, `ГЛОБУС`,
				`SAMOKAT`, `САМОКАТ`,
				`YANDEX\.?LAVKA`, `ЯНДЕКС\.?ЛАВКА`,
				`SBERMARKET`, `СБЕРМАРКЕТ`,
			),
		},
		{
			Category: statement.Restaurants,
			Patterns: alts(
				`TOKYO\s*CITY`, `ТОКИО\s*СИТИ`,
				`SUBWAY`, `САБВЕЙ`,
				`ROSTIC`, `РОСТИК`,
				`KFC`, `КФС`,
				`CINNABON`, `СИННАБОН`,
				`BURGER\s*KING`, `БУРГЕР\s*КИНГ`,
				`MCDONALD`, `МАКДОНАЛДС`,
				`ВКУСНО\s*И\s*ТОЧКА`, `VKUSNOITOCHKA`,
				`STARBUCKS`, `СТАРБАКС`,
				`COFFEE`, `КОФЕ`,
				`CAFE`, `КАФЕ`,
				`РЕСТОРАН`, `RESTAURANT`,
				`СУШИ`, `SUSHI`,
				`PIZZA`, `ПИЦЦА`,
				`DODO`, `ДОДО`,
				`DOMINO`, `ДОМИНО`,
				`DELIVERY\s*CLUB`, `ДЕЛИВЕРИ\s*КЛАБ`,
				`YANDEX\.?EDA`, `ЯНДЕКС\.?ЕДА`,
			),
		},
		{
			Category: statement.Transport,
			Patterns: concat(
				alts(
					`UBER`, `УБЕР`,
					`YANDEX\.?TAXI`, `ЯНДЕКС\.?ТАКСИ`,
					`CITYMOBIL`, `СИТИМОБИЛ`,
					`GETT`,
					`МЕТРО`,
				),
				[]Pattern{{Expr: `METRO`, NotFollowedBy: `\s*C`}},
				alts(
					`МОСМЕТРО`,
					`ТРОЙКА`, `TROIKA`,
					`РЖД`, `RZD`,
					`AEROFLOT`, `АЭРОФЛОТ`,
					`S7`,
					`POBEDA`, `ПОБЕДА`,
					`АЗС`,
					`ЛУКОЙЛ`, `LUKOIL`,
					`ГАЗПРОМ`, `GAZPROM`,
					`РОСНЕФТЬ`, `ROSNEFT`,
					`SHELL`,
					`BP\s`,
					`КАРШЕРИНГ`, `CARSHARING`,
					`ДЕЛИМОБИЛЬ`, `DELIMOBIL`,
					`ЯНДЕКС\.?ДРАЙВ`, `YANDEX\.?DRIVE`,
				),
			),
		},
		{
			Category: statement.Communication,
			Patterns: alts(
				`BEELINE`, `БИЛАЙН`,
				`MTS`+wordEnd, `МТС`+wordEnd,
				`MEGAFON`, `МЕГАФОН`,
				`TELE2`, `ТЕЛЕ2`,
				`YOTA`, `ЙОТА`,
				`ROSTELECOM`, `РОСТЕЛЕКОМ`,
				`DOM\.?RU`, `ДОМ\.?РУ`,
			),
		},
		{
			Category: statement.Entertainment,
			Patterns: alts(
				`CINEMA`, `КИНО`,
				`KINOPOISK`, `КИНОПОИСК`,
				`OKKO`, `ОККО`,
				`IVI`+wordEnd, `ИВИ`+wordEnd,
				`NETFLIX`,
				`SPOTIFY`,
				`APPLE\s*MUSIC`,
				`YANDEX\.?MUSIC`, `ЯНДЕКС\.?МУЗЫКА`,
				`YANDEX\.?PLUS`, `ЯНДЕКС\.?ПЛЮС`,
				`STEAM`,
				`PLAYSTATION`,
				`XBOX`,
				`NINTENDO`,
				`ТЕАТР`, `THEATER`,
				`КОНЦЕРТ`, `CONCERT`,
				`MUSEUM`, `МУЗЕЙ`,
				`ПАРК`, `PARK`,
				`WILDBERRIES`, `ВАЙЛДБЕРРИЗ`,
				`OZON`, `ОЗОН`,
				`ALIEXPRESS`, `АЛИЭКСПРЕСС`,
			),
		},
		{
			Category: statement.Health,
			Patterns: alts(
				`АПТЕКА`, `PHARMACY`, `APTEKA`,
				`GORZDRAV`, `ГОРЗДРАВ`,
				`RIGLA`, `РИГЛА`,
				`EAPTEKA`,
				`СТОЛИЧК`,
				`КЛИНИКА`, `CLINIC`,
				`МЕДЦЕНТР`,
				`ПОЛИКЛИНИКА`,
				`HOSPITAL`, `БОЛЬНИЦА`,
				`СТОМАТОЛОГ`, `DENTAL`,
				`OZON\.?PHARMA`,
			),
		},
		{
			Category: statement.Clothing,
			Patterns: alts(
				`ZARA`+wordEnd, `ЗАРА`+wordEnd,
				`H&M`,
				`UNIQLO`, `ЮНИКЛО`,
				`BERSHKA`, `БЕРШКА`,
				`MASSIMO\s*DUTTI`,
				`PULL\s*&\s*BEAR`,
				`GLORIA\s*JEANS`, `ГЛОРИЯ\s*ДЖИНС`,
				`СПОРТМАСТЕР`, `SPORTMASTER`,
				`DECATHLON`, `ДЕКАТЛОН`,
				`ADIDAS`, `АДИДАС`,
				`NIKE`+wordEnd, `НАЙК`,
				`PUMA`+wordEnd, `ПУМА`,
				`RENDEZ-?VOUS`, `РАНДЕВУ`,
				`KARI`+wordEnd, `КАРИ`+wordEnd,
			),
		},
		{
			Category: statement.Transfers,
			Patterns: alts(
				`перевод`,
				`transfer`,
				`Внутрибанковский`,
				`Внутренний`,
				`Внешний`,
				`СБП`,
				`Система\s*быстрых\s*платежей`,
			),
		},
		{
			Category: statement.Cashback,
			Patterns: alts(
				`кэшбэк`,
				`кешбек`,
				`cash\s*back`,
			),
		},
		{
			Category: statement.Cash,
			Patterns: alts(
				`снятие\s*наличных`,
				`банкомат`,
				`ATM`,
				`cash\s*withdrawal`,
			),
		},
	}
}
