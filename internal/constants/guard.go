package constants

// Guard names (used in rejection reasons and metrics labels)
const (
	GuardCommand = "command"
	GuardPath    = "path"
	GuardPattern = "pattern"
	GuardName    = "filename"
)

// Pattern Safety Checker bounds
const (
	PatternMaxLength      = 100
	PatternMaxQuantifiers = 10
	PatternMaxGroups      = 5
)

// Pattern modes
const (
	PatternModePlain = "plain"
	PatternModeGlob  = "glob"
	PatternModeRegex = "regex"
)

// CommandForbiddenChars are rejected anywhere in a console command.
const CommandForbiddenChars = ";|&$`(){}[]<>\\"

// CommandMaxLength bounds a single console command.
const CommandMaxLength = 256

// AllowedCommandVerbs is the console verb allow-list (case-sensitive, leading slash included).
var AllowedCommandVerbs = []string{
	"/say",
	"/tell",
	"/msg",
	"/me",
	"/list",
	"/kick",
	"/ban",
	"/ban-ip",
	"/pardon",
	"/pardon-ip",
	"/banlist",
	"/op",
	"/deop",
	"/whitelist",
	"/tp",
	"/teleport",
	"/give",
	"/clear",
	"/effect",
	"/enchant",
	"/xp",
	"/experience",
	"/gamemode",
	"/defaultgamemode",
	"/difficulty",
	"/time",
	"/weather",
	"/gamerule",
	"/setworldspawn",
	"/spawnpoint",
	"/seed",
	"/save-all",
	"/save-on",
	"/save-off",
	"/stop",
	"/kill",
	"/summon",
	"/title",
	"/playsound",
	"/worldborder",
	"/help",
}
