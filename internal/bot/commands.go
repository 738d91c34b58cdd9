package bot

import "strings"

// Command is a language-neutral tag for an inbound message.
type Command int

const (
	CmdNone Command = iota
	CmdChooseLanguage
	CmdLatestNews
	CmdMarketAnalysis
	CmdPrices
	CmdChart
	CmdSettings
	CmdChangeLanguage
	CmdNotifications
	CmdBack
	CmdDonate
)

var commandNames = map[Command]string{
	CmdNone:           "none",
	CmdChooseLanguage: "choose_language",
	CmdLatestNews:     "latest_news",
	CmdMarketAnalysis: "market_analysis",
	CmdPrices:         "prices",
	CmdChart:          "chart",
	CmdSettings:       "settings",
	CmdChangeLanguage: "change_language",
	CmdNotifications:  "notifications",
	CmdBack:           "back",
	CmdDonate:         "donate",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

const chartCommand = "/chart"

// Language choice labels map to the language code they select.
var languageLabels = map[string]string{
	"🇮🇷 فارسی":   "fa",
	"🇺🇸 English": "en",
}

// labels resolves every localized button text to its command.
var labels = map[string]Command{
	"🔄 آخرین خبر":       CmdLatestNews,
	"🔄 Latest News":     CmdLatestNews,
	"📊 تحلیل بازار":     CmdMarketAnalysis,
	"📊 Market Analysis": CmdMarketAnalysis,
	"💰 قیمت‌ها":         CmdPrices,
	"💰 Prices":          CmdPrices,
	"⚙️ تنظیمات":        CmdSettings,
	"⚙️ Settings":       CmdSettings,
	"🌐 تغییر زبان":      CmdChangeLanguage,
	"🌐 Change Language": CmdChangeLanguage,
	"🔔 اعلان‌ها":        CmdNotifications,
	"🔔 Notifications":   CmdNotifications,
	"↩️ بازگشت":         CmdBack,
	"↩️ Back":           CmdBack,
	"💰 حمایت":           CmdDonate,
	"💰 Donate":          CmdDonate,
}

// Resolve maps message text to a command and its arguments. Language choices
// carry the selected code; chart commands carry the words after "/chart".
func Resolve(text string) (Command, []string) {
	text = strings.TrimSpace(text)

	if lang, ok := languageLabels[text]; ok {
		return CmdChooseLanguage, []string{lang}
	}

	if fields := strings.Fields(text); len(fields) > 0 && isChartCommand(fields[0]) {
		return CmdChart, fields[1:]
	}

	if cmd, ok := labels[text]; ok {
		return cmd, nil
	}
	return CmdNone, nil
}

// isChartCommand accepts "/chart" and the group form "/chart@SomeBot".
func isChartCommand(word string) bool {
	name, _, _ := strings.Cut(word, "@")
	return strings.EqualFold(name, chartCommand)
}
