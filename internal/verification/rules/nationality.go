package rules

import (
	"strings"

	"github.com/biter777/countries"
)

// NationalityOutcome is the result of comparing a nationality with a country of issue.
type NationalityOutcome int

const (
	NationalityMatch NationalityOutcome = iota
	NationalityMismatch
	// NationalityUnresolved means one side is not a recognisable country, name, code or
	// demonym, so the pair cannot be compared.
	NationalityUnresolved
)

// demonyms maps ISO 3166-1 alpha-2 codes to the demonyms and informal names
// documents print that the ISO registry does not carry. Values are normalised.
var demonyms = map[string][]string{
	"AD": {"andorran"},
	"AE": {"emirati", "emirian", "uae", "emirates"},
	"AF": {"afghan", "afghanistani"},
	"AG": {"antiguan", "barbudan"},
	"AL": {"albanian"},
	"AM": {"armenian"},
	"AO": {"angolan"},
	"AR": {"argentine", "argentinian", "argentinean"},
	"AT": {"austrian"},
	"AU": {"australian", "commonwealth of australia"},
	"AZ": {"azerbaijani", "azeri"},
	"BA": {"bosnian", "herzegovinian", "bosnia"},
	"BB": {"barbadian", "bajan"},
	"BD": {"bangladeshi"},
	"BE": {"belgian"},
	"BF": {"burkinabe", "burkinese"},
	"BG": {"bulgarian"},
	"BH": {"bahraini"},
	"BI": {"burundian"},
	"BJ": {"beninese", "beninois"},
	"BN": {"bruneian", "brunei"},
	"BO": {"bolivian", "bolivia"},
	"BR": {"brazilian"},
	"BS": {"bahamian"},
	"BT": {"bhutanese"},
	"BW": {"motswana", "batswana", "botswanan"},
	"BY": {"belarusian", "belarusan"},
	"BZ": {"belizean"},
	"CA": {"canadian"},
	"CD": {"congolese", "drc", "dr congo", "democratic republic of congo"},
	"CF": {"central african"},
	"CG": {"republic of congo", "congo brazzaville"},
	"CH": {"swiss"},
	"CI": {"ivorian", "ivory coast"},
	"CL": {"chilean"},
	"CM": {"cameroonian"},
	"CN": {"chinese", "prc", "peoples republic of china"},
	"CO": {"colombian"},
	"CR": {"costa rican"},
	"CU": {"cuban"},
	"CV": {"cape verdean", "cabo verdean", "cape verde"},
	"CY": {"cypriot"},
	"CZ": {"czech", "czech republic"},
	"DE": {"german"},
	"DJ": {"djiboutian"},
	"DK": {"danish", "dane"},
	"DO": {"dominican"},
	"DZ": {"algerian"},
	"EC": {"ecuadorian", "ecuadorean"},
	"EE": {"estonian"},
	"EG": {"egyptian"},
	"ER": {"eritrean"},
	"ES": {"spanish", "spaniard"},
	"ET": {"ethiopian"},
	"FI": {"finnish", "finn"},
	"FJ": {"fijian"},
	"FM": {"micronesian", "micronesia"},
	"FR": {"french"},
	"GA": {"gabonese"},
	"GB": {"british", "british citizen", "uk", "britain", "great britain", "england", "english", "scotland", "scottish", "wales", "welsh", "northern ireland"},
	"GD": {"grenadian"},
	"GE": {"georgian"},
	"GH": {"ghanaian"},
	"GM": {"gambian", "gambia"},
	"GN": {"guinean"},
	"GQ": {"equatoguinean", "equatorial guinean"},
	"GR": {"greek", "hellenic republic"},
	"GT": {"guatemalan"},
	"GW": {"bissau guinean"},
	"GY": {"guyanese"},
	"HK": {"hong konger", "hong kong sar", "hong kong chinese"},
	"HN": {"honduran"},
	"HR": {"croatian", "croat"},
	"HT": {"haitian"},
	"HU": {"hungarian"},
	"ID": {"indonesian"},
	"IE": {"irish", "republic of ireland"},
	"IL": {"israeli"},
	"IN": {"indian"},
	"IQ": {"iraqi"},
	"IR": {"iranian", "iran", "persian"},
	"IS": {"icelandic", "icelander"},
	"IT": {"italian"},
	"JM": {"jamaican"},
	"JO": {"jordanian"},
	"JP": {"japanese"},
	"KE": {"kenyan"},
	"KG": {"kyrgyz", "kyrgyzstani", "kirghiz"},
	"KH": {"cambodian", "khmer"},
	"KI": {"i kiribati", "kiribatian"},
	"KM": {"comoran", "comorian"},
	"KN": {"kittitian", "nevisian"},
	"KP": {"north korean", "north korea", "dprk"},
	"KR": {"south korean", "south korea", "korean", "korea", "republic of korea"},
	"KW": {"kuwaiti"},
	"KZ": {"kazakh", "kazakhstani"},
	"LA": {"lao", "laotian", "laos"},
	"LB": {"lebanese"},
	"LC": {"saint lucian", "st lucian"},
	"LI": {"liechtensteiner"},
	"LK": {"sri lankan"},
	"LR": {"liberian"},
	"LS": {"basotho", "mosotho"},
	"LT": {"lithuanian"},
	"LU": {"luxembourgish", "luxembourger"},
	"LV": {"latvian"},
	"LY": {"libyan"},
	"MA": {"moroccan"},
	"MC": {"monegasque", "monacan"},
	"MD": {"moldovan", "moldova"},
	"ME": {"montenegrin"},
	"MG": {"malagasy"},
	"MH": {"marshallese"},
	"MK": {"macedonian", "north macedonian", "macedonia"},
	"ML": {"malian"},
	"MM": {"burmese", "myanma", "burma"},
	"MN": {"mongolian"},
	"MO": {"macanese", "macau", "macao sar"},
	"MR": {"mauritanian"},
	"MT": {"maltese"},
	"MU": {"mauritian"},
	"MV": {"maldivian"},
	"MW": {"malawian"},
	"MX": {"mexican"},
	"MY": {"malaysian"},
	"MZ": {"mozambican"},
	"NA": {"namibian"},
	"NE": {"nigerien"},
	"NG": {"nigerian"},
	"NI": {"nicaraguan"},
	"NL": {"dutch", "holland", "netherlander"},
	"NO": {"norwegian"},
	"NP": {"nepalese", "nepali"},
	"NR": {"nauruan"},
	"NZ": {"new zealander", "kiwi"},
	"OM": {"omani"},
	"PA": {"panamanian"},
	"PE": {"peruvian"},
	"PG": {"papua new guinean"},
	"PH": {"filipino", "filipina", "philippine"},
	"PK": {"pakistani"},
	"PL": {"polish", "pole"},
	"PS": {"palestinian", "palestine"},
	"PT": {"portuguese"},
	"PW": {"palauan"},
	"PY": {"paraguayan"},
	"QA": {"qatari"},
	"RO": {"romanian"},
	"RS": {"serbian", "serb"},
	"RU": {"russian", "russia"},
	"RW": {"rwandan", "rwandese"},
	"SA": {"saudi", "saudi arabian"},
	"SB": {"solomon islander"},
	"SC": {"seychellois"},
	"SD": {"sudanese"},
	"SE": {"swedish", "swede"},
	"SG": {"singaporean"},
	"SI": {"slovenian", "slovene"},
	"SK": {"slovak", "slovakian"},
	"SL": {"sierra leonean"},
	"SM": {"sammarinese"},
	"SN": {"senegalese"},
	"SO": {"somali", "somalian"},
	"SR": {"surinamese"},
	"SS": {"south sudanese"},
	"ST": {"sao tomean"},
	"SV": {"salvadoran", "salvadorean"},
	"SY": {"syrian", "syria"},
	"SZ": {"swazi", "eswatini", "swaziland"},
	"TD": {"chadian"},
	"TG": {"togolese"},
	"TH": {"thai"},
	"TJ": {"tajik", "tajikistani"},
	"TL": {"timorese", "east timor", "east timorese"},
	"TM": {"turkmen"},
	"TN": {"tunisian"},
	"TO": {"tongan"},
	"TR": {"turkish", "turk", "turkiye"},
	"TT": {"trinidadian", "tobagonian"},
	"TV": {"tuvaluan"},
	"TW": {"taiwanese", "taiwan"},
	"TZ": {"tanzanian", "tanzania"},
	"UA": {"ukrainian"},
	"UG": {"ugandan"},
	"US": {"american", "usa", "united states", "united states of america"},
	"UY": {"uruguayan"},
	"UZ": {"uzbek", "uzbekistani"},
	"VA": {"vatican"},
	"VC": {"vincentian"},
	"VE": {"venezuelan", "venezuela"},
	"VN": {"vietnamese", "vietnam", "viet nam"},
	"VU": {"ni vanuatu", "vanuatuan"},
	"WS": {"samoan"},
	"XK": {"kosovar", "kosovan", "kosovo"},
	"YE": {"yemeni"},
	"ZA": {"south african"},
	"ZM": {"zambian"},
	"ZW": {"zimbabwean"},
}

var demonymIndex = buildDemonymIndex()

func buildDemonymIndex() map[string]string {
	idx := make(map[string]string, len(demonyms)*3)
	for code, names := range demonyms {
		for _, name := range names {
			idx[name] = code
		}
	}
	return idx
}

// CanonicalCountry resolves a country name, demonym or ISO 3166 code to its alpha-2
// code. The second result is false when the value is not recognised.
func CanonicalCountry(value string) (string, bool) {
	n := NormalizeName(value)
	if n == "" {
		return "", false
	}
	if code, ok := demonymIndex[n]; ok {
		return code, true
	}
	c := countries.ByName(strings.ToUpper(n))
	if c == countries.Unknown || !c.IsValid() {
		return "", false
	}
	return c.Alpha2(), true
}

// CompareNationality compares a document nationality with the country that issued it.
func CompareNationality(countryOfIssue, nationality string) NationalityOutcome {
	a, okA := CanonicalCountry(countryOfIssue)
	b, okB := CanonicalCountry(nationality)
	if !okA || !okB {
		return NationalityUnresolved
	}
	if a != b {
		return NationalityMismatch
	}
	return NationalityMatch
}

// NationalityMatchesCountry reports whether a document nationality is consistent with
// the country that issued it. Values that cannot be resolved are not a mismatch.
func NationalityMatchesCountry(countryOfIssue, nationality string) bool {
	return CompareNationality(countryOfIssue, nationality) != NationalityMismatch
}
