package homepage

import "github.com/networkteam/sitecheck/locator"

// Element names of the home page.
const (
	Logo               locator.Name = "logo"
	MenuButton         locator.Name = "menu_button"
	EmailLink          locator.Name = "email_link"
	PhoneLink          locator.Name = "phone_link"
	TelegramLink       locator.Name = "telegram_link"
	TelegramText       locator.Name = "telegram_text"
	StartProjectButton locator.Name = "start_project_button"
	ProjectsHeading    locator.Name = "projects_heading"
	ClientsHeading     locator.Name = "clients_heading"
	DirectionsHeading  locator.Name = "directions_heading"
	AwardsHeading      locator.Name = "awards_heading"
	ProjectCards       locator.Name = "project_cards"
	ProjectName        locator.Name = "project_name"
	ClientLogos        locator.Name = "client_logos"
	IndustryFilters    locator.Name = "industry_filters"
	AwardItems         locator.Name = "award_items"
	AwardCount         locator.Name = "award_count"
	Footer             locator.Name = "footer"
	SocialLinks        locator.Name = "social_links"
	PrivacyLink        locator.Name = "privacy_link"
	NextSlideButton    locator.Name = "next_slide_button"
	PrevSlideButton    locator.Name = "prev_slide_button"
)

// Locators is the locator registry of the home page.
// The site exposes no test ids, so most locators match literal (Russian) text or href fragments.
var Locators = locator.MustRegistry("home", map[locator.Name]locator.Locator{
	// Header
	Logo:       locator.ByXPath("//a[@href='/']"),
	MenuButton: locator.ByCSS("button[aria-label*='menu']"),

	// Contacts
	EmailLink:    locator.ByXPath("//a[contains(@href, 'mailto:hello@only.digital')]"),
	PhoneLink:    locator.ByXPath("//a[contains(@href, 'tel:+7')]"),
	TelegramLink: locator.ByXPath("//a[contains(@href, 't.me')]"),
	TelegramText: locator.ByXPath("//*[contains(text(), '@onlydigitalagency')]"),

	StartProjectButton: locator.ByXPath("//button[contains(text(), 'проект')]"),

	// Section headings
	ProjectsHeading:   locator.ByXPath("//*[contains(text(), 'проекты')]"),
	ClientsHeading:    locator.ByXPath("//*[contains(text(), 'клиенты')]"),
	DirectionsHeading: locator.ByXPath("//*[contains(text(), 'направления')]"),
	AwardsHeading:     locator.ByXPath("//*[contains(text(), 'награды')]"),

	// Collections
	ProjectCards:    locator.ByCSS("[class*='project'], [data-test*='project']"),
	ProjectName:     locator.ByCSS("h3, [class*='title']"),
	ClientLogos:     locator.ByCSS("[class*='client'], [data-test*='client']"),
	IndustryFilters: locator.ByXPath("//a[contains(@href, '/projects/industry/')]"),
	AwardItems:      locator.ByCSS("[class*='award'], [data-test*='award']"),
	AwardCount:      locator.ByCSS("[class*='count']"),

	// Footer
	Footer:      locator.ByTagName("footer"),
	SocialLinks: locator.ByXPath("//a[contains(@href, 'behance') or contains(@href, 'vk.com') or contains(@href, 't.me')]"),
	PrivacyLink: locator.ByXPath("//a[contains(@href, 'privacy') or contains(text(), 'Политика')]"),

	// Slider
	NextSlideButton: locator.ByXPath("//button[contains(text(), 'следующий')]"),
	PrevSlideButton: locator.ByXPath("//button[contains(text(), 'предыдущий')]"),
})
