package bot

// Keyboard is a reply keyboard shown under the input field.
type Keyboard struct {
	Rows    [][]string
	OneTime bool
}

const languagePrompt = "🌐 لطفاً زبان را انتخاب کنید / Select language:"

var languageKeyboard = &Keyboard{
	Rows:    [][]string{{"🇮🇷 فارسی", "🇺🇸 English"}},
	OneTime: true,
}

var mainKeyboards = map[string]*Keyboard{
	"fa": {Rows: [][]string{
		{"🔄 آخرین خبر", "📊 تحلیل بازار"},
		{"💰 قیمت‌ها", "/chart BTCUSDT 1h"},
		{"⚙️ تنظیمات", "💰 حمایت"},
	}},
	"en": {Rows: [][]string{
		{"🔄 Latest News", "📊 Market Analysis"},
		{"💰 Prices", "/chart BTCUSDT 1h"},
		{"⚙️ Settings", "💰 Donate"},
	}},
}

var settingsKeyboards = map[string]*Keyboard{
	"fa": {Rows: [][]string{
		{"🌐 تغییر زبان", "🔔 اعلان‌ها"},
		{"↩️ بازگشت"},
	}},
	"en": {Rows: [][]string{
		{"🌐 Change Language", "🔔 Notifications"},
		{"↩️ Back"},
	}},
}

type message int

const (
	msgLanguageSet message = iota
	msgLanguageChanged
	msgNotificationsOn
	msgNotificationsOff
	msgSettings
	msgMainMenu
	msgFallback
	msgNewsLabelTitle
	msgNewsLabelSummary
	msgAnalysisHeader
	msgMarketAnalysis
	msgPricesHeader
	msgPricesError
	msgChartUsage
	msgChartError
	msgDonate
)

var messages = map[string]map[message]string{
	"fa": {
		msgLanguageSet:      "زبان تنظیم شد!",
		msgLanguageChanged:  "زبان تغییر کرد!",
		msgNotificationsOn:  "اعلان‌ها فعال شد.",
		msgNotificationsOff: "اعلان‌ها غیرفعال شد.",
		msgSettings:         "⚙️ تنظیمات:",
		msgMainMenu:         "منوی اصلی",
		msgFallback:         "لطفاً یکی از گزینه‌ها را انتخاب کنید.",
		msgNewsLabelTitle:   "تیتر",
		msgNewsLabelSummary: "خلاصه",
		msgAnalysisHeader:   "📊 تحلیل:\n%s",
		msgMarketAnalysis:   "📊 تحلیل بازار:\n%s\n📈 %d صعودی / 📉 %d نزولی",
		msgPricesHeader:     "💰 قیمت‌ها:",
		msgPricesError:      "خطا در دریافت قیمت‌ها.",
		msgChartUsage:       "لطفاً نماد را وارد کنید. مثال: /chart BTC 1h",
		msgChartError:       "خطا در تولید چارت.",
		msgDonate:           "💰 حمایت از ربات:\n`%s`\nممنون!",
	},
	"en": {
		msgLanguageSet:      "Language set!",
		msgLanguageChanged:  "Language changed!",
		msgNotificationsOn:  "Notifications enabled.",
		msgNotificationsOff: "Notifications disabled.",
		msgSettings:         "⚙️ Settings:",
		msgMainMenu:         "Main menu",
		msgFallback:         "Please choose an option.",
		msgNewsLabelTitle:   "Title",
		msgNewsLabelSummary: "Summary",
		msgAnalysisHeader:   "📊 Analysis:\n%s",
		msgMarketAnalysis:   "📊 Market Analysis:\n%s\n📈 %d up / 📉 %d down",
		msgPricesHeader:     "💰 Prices:",
		msgPricesError:      "Error fetching prices.",
		msgChartUsage:       "Please provide a symbol. Example: /chart BTC 1h",
		msgChartError:       "Error generating chart.",
		msgDonate:           "💰 Support the bot:\n`%s`\nThanks!",
	},
}

func localize(lang string, m message) string {
	if table, ok := messages[lang]; ok {
		return table[m]
	}
	return messages["en"][m]
}

func mainKeyboard(lang string) *Keyboard {
	if kb, ok := mainKeyboards[lang]; ok {
		return kb
	}
	return mainKeyboards["en"]
}

func settingsKeyboard(lang string) *Keyboard {
	if kb, ok := settingsKeyboards[lang]; ok {
		return kb
	}
	return settingsKeyboards["en"]
}

func otherLanguage(lang string) string {
	if lang == "fa" {
		return "en"
	}
	return "fa"
}
