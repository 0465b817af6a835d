package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client.
var UserAgent = "Go-SchoolMenu/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "Go School Menu"
	AppID             = "com.github.tartampluch.go-schoolmenu"
	KeyringService    = "com.github.tartampluch.go-schoolmenu"
	LocalhostBindAddr = "127.0.0.1"
	LogFileName       = "app.log"
	BinaryName        = "go-schoolmenu"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	// Used for sensitive files like logs.
	FilePermUserRW fs.FileMode = 0600

	// FilePermConfig represents -rw-r--r--, used for config.yaml and state snapshots.
	FilePermConfig fs.FileMode = 0644

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	// Used for creating secure cache directories.
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Commands, Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagDebug     = "debug"
	FlagConfigDir = "config-dir"
	FlagDate      = "date"
	FlagNoColor   = "no-color"

	FlagDescDebug     = "Enable debug logging to stdout"
	FlagDescConfigDir = "configuration directory (default: user config dir)"
	FlagDescDate      = "ask the upstream entity to show this date (YYYY-MM-DD, today or tomorrow) before rendering"
	FlagDescNoColor   = "disable colored terminal output"

	CmdGUI     = "gui"
	CmdShow    = "show"
	CmdNav     = "nav"
	CmdServe   = "serve"
	CmdVersion = "version"
	CmdCards   = "cards"
	CmdUseNav  = "nav {prev|next|today}"

	NavPrev  = "prev"
	NavNext  = "next"
	NavToday = "today"

	CmdShortRoot    = "Display a school cafeteria menu card"
	CmdShortGUI     = "Open the desktop menu card (default)"
	CmdShortShow    = "Print the menu card for the current date to the terminal"
	CmdShortNav     = "Step the displayed date: prev, next or today"
	CmdShortServe   = "Publish the menu as an iCalendar feed and the card as JSON over HTTP"
	CmdShortVersion = "Show application version and exit"
	CmdShortCards   = "List the card types available to the dashboard card picker"

	MsgVersionOutput = "%s version %s (%s/%s)\n"
)

// -----------------------------------------------------------------------------
// Configuration File (viper)
// -----------------------------------------------------------------------------

const (
	ConfigDirName  = "go-schoolmenu"
	ConfigFileName = "config"
	ConfigFileType = "yaml"
	ConfigFileExt  = "config.yaml"
	EnvPrefix      = "SCHOOLMENU"

	CfgKeyEntity     = "card.entity"
	CfgKeyTitle      = "card.title"
	CfgKeyCategories = "card.categories"
	CfgKeyHostMode   = "host.mode"
	CfgKeyHostURL    = "host.url"
	CfgKeyStateFile  = "host.state_file"
	CfgKeyPoll       = "host.poll_interval"
	CfgKeyPort       = "server.port"
	CfgKeyLanguage   = "language"
)

// DefaultConfigYAML is written to config.yaml on first run.
const DefaultConfigYAML = `# Go School Menu configuration

card:
  # Upstream sensor entity exposing target_date, days and categories.
  entity: ""
  title: "School Menu"
  categories:
    - entree

host:
  # demo, file or rest
  mode: demo
  # Home Assistant base URL for rest mode. The access token is kept in the OS keyring.
  url: ""
  # JSON snapshot of entity states for file mode.
  state_file: ""
  poll_interval: 60s

server:
  port: "18081"

language: en
`

// -----------------------------------------------------------------------------
// Host Modes & Upstream Commands
// -----------------------------------------------------------------------------

const (
	HostModeDemo = "demo"
	HostModeFile = "file"
	HostModeREST = "rest"

	// Upstream integration domain and its date service.
	ServiceDomain  = "nutrislice"
	ServiceSetDate = "set_date"

	CommandToday    = "today"
	CommandTomorrow = "tomorrow"

	// DemoEntity is the entity exposed by the in-memory demo host.
	DemoEntity = "sensor.demo_elementary_lunch"
	DemoDays   = 21
)

// HostModes lists the accepted host.mode values.
var HostModes = []string{HostModeDemo, HostModeFile, HostModeREST}

// -----------------------------------------------------------------------------
// Card Registration & Layout
// -----------------------------------------------------------------------------

const (
	CardType        = "nutrislice-card"
	CardName        = "Nutrislice Menu Card"
	CardDescription = "A card to display school lunch menus from the Nutrislice integration."
	CardPreview     = true

	// CardSize is the layout weight reported to the host's layout engine.
	CardSize = 5

	ColType        = "TYPE"
	ColName        = "NAME"
	ColDescription = "DESCRIPTION"

	// TerminalColumnWidth caps the item columns printed by the CLI; longer
	// descriptions wrap.
	TerminalColumnWidth = 60

	DefaultTitle    = "School Menu"
	DefaultCategory = "entree"
)

// -----------------------------------------------------------------------------
// Menu Resolution
// -----------------------------------------------------------------------------

const (
	// AfternoonCutoffHour is the local hour from which the initial cursor shows tomorrow.
	AfternoonCutoffHour = 13

	// MiddayHour is the time of day every cursor is pinned to.
	MiddayHour = 12

	SidesCategory  = "side"
	SidesCategoryP = "sides"

	// MarkupPattern strips tags from upstream descriptions.
	MarkupPattern = `<[^>]*>?`

	DateKeySeparator = "-"
	DateKeyFormat    = "%04d-%02d-%02d"
	SummarySeparator = ", "
	SummaryNoMenu    = "No menu"

	// Entity state values, formatted with the title-cased main category.
	StateItemsAvailable = "%d %ss Available"
	StateNoItems        = "No %ss/Weekend"
	StateUnknown        = "unknown"
)

// SidesAliases are the raw category labels matched when "side" or "sides" is selected.
var SidesAliases = []string{"vegetable", "fruit", "grain", "side"}

// KnownCategories are the category names offered in the settings window.
var KnownCategories = []string{
	"entree", "sides", "dessert", "drink", "breakfast", "snack",
	"condiment", "fruit", "vegetable", "grain", "beverage", "milk",
}

// -----------------------------------------------------------------------------
// UI Constants & Preferences
// -----------------------------------------------------------------------------

const (
	IconFile            = "Icon.svg"
	SettingsWindowWidth = 520
	CardWindowWidth     = 420
	CardWindowHeight    = 560
	ItemImageSize       = 60

	PrefEntity     = "card_entity"
	PrefTitle      = "card_title"
	PrefCategories = "card_categories"
	PrefHostMode   = "host_mode"
	PrefHostURL    = "host_url"
	PrefStateFile  = "host_state_file"
	PrefLanguage   = "language"
	PrefServerPort = "server_port"
	PrefInterval   = "refresh_interval_sec"
	PrefLastRun    = "last_run_version"

	CategoryListSeparator = ","
	PlaceholderURL        = "http://homeassistant.local:8123"
	PlaceholderEntity     = "sensor.my_school_lunch"
	ExtJSON               = ".json"
)

// SupportedLanguages defines the list of available UI languages (ISO 639-1).
var SupportedLanguages = []string{"en", "fr"}

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	// Card states
	TKeyMissingEntity = "state_missing_entity" // Requires EntityID
	TKeyLoading       = "state_loading"        // Requires Date
	TKeyDayNotFound   = "state_day_not_found"  // Requires Label
	TKeyHolidayDetail = "state_holiday_detail"
	TKeyWeekendEmpty  = "state_weekend_empty"
	TKeyNoMenu        = "state_no_menu"        // Requires Label
	TKeyFilteredEmpty = "state_filtered_empty" // Requires Label

	// Relative dates
	TKeyToday     = "date_today"
	TKeyTomorrow  = "date_tomorrow"
	TKeyYesterday = "date_yesterday"
	TKeyLongDate  = "format_long_date" // Requires Weekday, Month, Day

	// Weekday and month name prefixes (weekday_0..weekday_6, month_1..month_12)
	TKeyWeekdayPrefix = "weekday_"
	TKeyMonthPrefix   = "month_"

	// Buttons & menus
	TKeyBtnToday     = "btn_today"
	TKeyBtnPrev      = "btn_prev"
	TKeyBtnNext      = "btn_next"
	TKeyBtnSave      = "btn_save"
	TKeyBtnCancel    = "btn_cancel"
	TKeyBtnBrowse    = "btn_browse"
	TKeyMenuShow     = "menu_show_card"
	TKeyMenuRefresh  = "menu_refresh"
	TKeyMenuSettings = "menu_settings"

	// Settings window
	TKeyWinSettings   = "win_settings_title"
	TKeyLblCard       = "lbl_card"
	TKeyLblEntity     = "lbl_entity"
	TKeyHelpEntity    = "help_entity"
	TKeyLblTitle      = "lbl_title"
	TKeyLblCategories = "lbl_categories"
	TKeyHelpCategory  = "help_categories"
	TKeyLblHost       = "lbl_host"
	TKeyModeDemo      = "mode_demo"
	TKeyModeFile      = "mode_file"
	TKeyModeREST      = "mode_rest"
	TKeyLblURL        = "lbl_url"
	TKeyLblToken      = "lbl_token"
	TKeyLblStateFile  = "lbl_state_file"
	TKeyLblGeneral    = "lbl_general"
	TKeyLblLanguage   = "lbl_language"
	TKeyLblPort       = "lbl_server_port"
	TKeyLblFooter     = "lbl_footer"

	// Validation Errors (UI)
	TKeyErrEntityReq = "err_entity_required"
	TKeyErrPortReq   = "err_port_required"
	TKeyErrPortNum   = "err_port_number"
	TKeyErrPortRange = "err_port_range"
)

// -----------------------------------------------------------------------------
// Date Formats, Limits & Defaults
// -----------------------------------------------------------------------------

const (
	DateFormatKey      = "2006-01-02"
	DateFormatLongEN   = "Monday, Jan 2"
	DefaultPort        = "18081"
	DefaultLanguage    = "en"
	DefaultPollSeconds = 60
	UIDSalt            = "go-schoolmenu-v1-" // Salt for deterministic UID generation

	MinPort = 1
	MaxPort = 65535

	UIDHashLength   = 16
	FormatHashInput = "%s|%s|%s"
	FormatUID       = "%s@%s"
)

// -----------------------------------------------------------------------------
// Standards: iCalendar
// -----------------------------------------------------------------------------

const (
	ICalVersion = "2.0"
	ICalProdid  = "-//Go School Menu//Engine//EN"
	ICalCalName = "School Menu"
	ICalMethod  = "PUBLISH"
	ICalScale   = "GREGORIAN"
	ICalDomain  = "goschoolmenu"

	PropUID         = "UID"
	PropSummary     = "SUMMARY"
	PropDescription = "DESCRIPTION"
	PropCategories  = "CATEGORIES"
	PropDTStart     = "DTSTART"
	PropDTStamp     = "DTSTAMP"
	PropRefresh     = "REFRESH-INTERVAL"
	PropVersion     = "VERSION"
	PropProdid      = "PRODID"
	PropXWRCalName  = "X-WR-CALNAME"
	PropCalScale    = "CALSCALE"
	PropMethod      = "METHOD"

	ICalCategoryHoliday = "HOLIDAY"
	ICalCategoryMenu    = "MENU"
	ICalDescLine        = "%s: %s"

	DefaultICalRefresh = 6 * time.Hour
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	HTTPTimeout         = 30 * time.Second
	ShutdownTimeout     = 5 * time.Second
	ServerReadTimeout   = 10 * time.Second
	ServerWriteTimeout  = 30 * time.Second
	ServerIdleTimeout   = 60 * time.Second
	WatchDebounce       = 100 * time.Millisecond
	RetryAfterSeconds   = "10"
	AllowedMethods      = "GET, HEAD"
	MaxHTTPResponseSize = 16 * 1024 * 1024 // 16MB
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	RouteRoot           = "/"
	RouteCard           = "/card"
	AddrSeparator       = ":"

	// Home Assistant REST API paths.
	APIStatePath   = "/api/states/"
	APIServicePath = "/api/services/%s/%s"
	BearerPrefix   = "Bearer "
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderUserAgent       = "User-Agent"
	HeaderAuthorization   = "Authorization"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"

	MimeTextCalendar    = "text/calendar; charset=utf-8"
	MimeJSON            = "application/json"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrEntityRequired   = "please define a Nutrislice sensor entity"
	ErrNotConfigured    = "card is not configured"
	ErrInvalidDirection = "navigation direction must be -1 or +1"
	ErrDateKey          = "invalid date key, expected YYYY-MM-DD"
	ErrEntityNotFound   = "entity not found"
	ErrUnknownService   = "unknown service"
	ErrInvalidDate      = "invalid date format, use YYYY-MM-DD"
	ErrHostMode         = "configuration error: unsupported host mode"
	ErrHostURLEmpty     = "configuration error: host URL is empty"
	ErrStateFileEmpty   = "configuration error: state file path is empty"
	ErrStateFileRead    = "failed to read state snapshot"
	ErrStateFileWrite   = "failed to write state snapshot"
	ErrStateDecode      = "failed to decode entity state"
	ErrRequestCreate    = "failed to create request"
	ErrNetwork          = "network error while contacting host"
	ErrHTTPStatus       = "host returned unexpected status"
	ErrWatch            = "failed to watch state snapshot"
	ErrServerStartup    = "server startup failed"
	ErrServerShutdown   = "server shutdown failed"
	ErrPortRequired     = "server port is required"
	ErrPortNumber       = "server port must be a number"
	ErrPortRange        = "server port must be between 1 and 65535"
	ErrInvalidURL       = "invalid URL structure"
	ErrProtocol         = "unsupported protocol scheme (http/https only)"
	ErrICalEncode       = "failed to encode iCalendar data"
	ErrCardEncode       = "failed to encode card view"
	ErrLogFile          = "failed to open log file"
	ErrCacheDir         = "could not determine user cache dir"
	ErrConfigDir        = "could not determine user config dir"
	ErrCreateDir        = "could not create app directory"
	ErrConfigRead       = "failed to read configuration"
	ErrAppFailed        = "application failed unexpectedly"
	ErrWriteResp        = "failed to write response body"
	ErrLocalesAccess    = "failed to access embedded locales"
	ErrLocaleLoad       = "failed to load locale file"
	ErrTrayNotSupported = "system tray not supported on this platform/driver"
	ErrDispatch         = "failed to dispatch command"
	ErrStateRead        = "failed to read entity state"
	ErrTokenLoad        = "failed to load access token from keyring"
	ErrTokenSave        = "failed to save access token to keyring"
	ErrDuplicateCard    = "card type already registered"
	ErrUnknownCard      = "card type not registered"
	ErrNavTarget        = "navigation target must be prev, next or today"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Menu initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
)

// -----------------------------------------------------------------------------
// Fallbacks & Log Messages
// -----------------------------------------------------------------------------

const (
	// StubVCalendar is the minimal valid iCalendar object used when no events are found.
	StubVCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + ICalProdid + "\r\nEND:VCALENDAR\r\n"

	TitleStartupError = "Startup Error"

	MsgPortBusy        = "Port %s is busy or unavailable."
	MsgWorkerStart     = "Background worker started"
	MsgWorkerStop      = "Worker stopping due to context cancellation"
	MsgAppStop         = "Application stopped gracefully"
	MsgCtxCancel       = "Context cancelled, shutting down UI"
	MsgAppStarting     = "Starting application"
	MsgServerListen    = "HTTP server listening"
	MsgServerStop      = "Shutting down HTTP server..."
	MsgCacheUpdated    = "Feed cache updated"
	MsgLocaleSkip      = "Skipping non-locale file"
	MsgLocaleBadName   = "Skipping malformed locale filename"
	MsgLocaleLoaded    = "Locale loaded successfully"
	MsgTransMissing    = "Missing translation key"
	MsgLangFallback    = "Unsupported language, falling back to default"
	MsgLogWarning      = "Warning: %s at %s: %v\n"
	MsgTargetIgnored   = "Ignoring unparseable target_date"
	MsgCursorBoot      = "Cursor initialized"
	MsgCursorSet       = "Cursor reconciled"
	MsgOutcome         = "Menu outcome resolved"
	MsgUnknownOutcome  = "Unhandled outcome kind"
	MsgCommandSent     = "Command dispatched"
	MsgCommandApplied  = "Target date updated"
	MsgConfigSet       = "Card configured"
	MsgNotConfigured   = "Refresh skipped, card not configured"
	MsgSnapshotChanged = "State snapshot changed"
	MsgStatePoll       = "Polling entity state"
	MsgCalendarBuilt   = "Calendar generation successful"
	MsgConfigCreated   = "Default configuration written"
	MsgRefresh         = "Card refresh requested"
	MsgSettingsSaved   = "Saving preferences"
	MsgCardRegistered  = "Card type registered"
	MsgHostConnected   = "Host connected"
	MsgSettingsOpen    = "Opening settings window"
	MsgSettingsFocus   = "Settings window already open, requesting focus"
	MsgNavigate        = "Navigation requested"
	MsgConfigLoaded    = "Configuration loaded"
	MsgServeReady      = "Serving menu feed"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent  = "component"
	LogKeyError      = "error"
	LogKeyURL        = "url"
	LogKeyStatus     = "status_code"
	LogKeyFile       = "file"
	LogKeyLang       = "lang"
	LogKeyKey        = "key"
	LogKeyPort       = "port"
	LogKeyMode       = "mode"
	LogKeyInterval   = "interval"
	LogKeyEntity     = "entity"
	LogKeyDate       = "date"
	LogKeyCursor     = "cursor"
	LogKeyOutcome    = "outcome"
	LogKeyCount      = "count"
	LogKeyCommand    = "command_id"
	LogKeyService    = "service"
	LogKeyValue      = "value"
	LogKeySizeBytes  = "size_bytes"
	LogKeyETag       = "etag"
	LogKeyManual     = "manual"
	LogKeyCardType   = "card_type"
	LogKeyEvents     = "events"
	LogKeySubcommand = "subcommand"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompUI     = "ui"
	CompUISet  = "ui_settings"
	CompEngine = "engine"
	CompCard   = "card"
	CompServer = "server"
	CompHost   = "host"
	CompWorker = "worker"
	CompMain   = "main"
	CompI18n   = "i18n"
)

// -----------------------------------------------------------------------------
// UI Layout Constants
// -----------------------------------------------------------------------------

const (
	LayoutColumnsDouble = 2
	LayoutColumnsTriple = 3
)
