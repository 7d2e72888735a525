package sample

// World name components, adjective + noun.
var worldAdjectives = []string{
	"Crimson", "Forgotten", "Shattered", "Eternal", "Hollow",
	"Burning", "Silent", "Lost", "Golden", "Jade",
	"Obsidian", "Amber", "Silver", "Frozen", "Verdant",
	"Twilight", "Iron", "Sapphire", "Ashen", "Emerald",
}

var worldNouns = []string{
	"Vale", "Kingdom", "Throne", "Realm", "Keep",
	"Tower", "Coast", "Marsh", "Oasis", "Summit",
	"Grove", "Expanse", "Depths", "Citadel", "Sanctuary",
	"Dominion", "Frontier", "Wasteland", "Haven", "Abyss",
}

// Region descriptors for geography drafts.
var terrains = []string{
	"a windswept archipelago", "a river delta of braided channels",
	"highland steppes ringed by glaciers", "a sunken basin of salt flats",
	"dense cloud forests on volcanic slopes", "rolling grasslands cut by canyons",
	"a frozen coast of black basalt", "terraced valleys under twin peaks",
}

var climates = []string{
	"short violent summers and long dry winters",
	"monsoon rains that flood the lowlands every spring",
	"a fog that never fully lifts from the valleys",
	"cloudless skies and brutal daily temperature swings",
	"mild seasons governed by warm ocean currents",
}

// Founding myths and historical hooks for lore drafts.
var foundingMyths = []string{
	"The first settlers followed a falling star to the valley floor.",
	"A drowned empire's survivors rebuilt on the bones of their fleet.",
	"Twin siblings split the land by treaty, and the border still burns.",
	"The old gods left mid-sentence; their unfinished words litter the hills as standing stones.",
	"A century-long winter ended the night the last king abdicated.",
}

var ancientEvents = []string{
	"the Sundering of the Inner Sea", "the Glass Rebellion",
	"the Year of Silent Bells", "the Long Accord", "the Ember Tithe",
}

// Faction archetypes.
var factionNames = []string{
	"The Cartographers' Compact", "The Saltborn League", "The Veiled Court",
	"The Emberwrights", "The Order of the Unbroken Seal", "The Tidechildren",
	"The Grey Tally", "The Lantern Synod",
}

var factionAgendas = []string{
	"monopolize the mapping of the frontier",
	"restore a deposed royal line",
	"guard the sealed vaults beneath the capital",
	"collect debts owed since the old war",
	"keep the trade lanes open at any price",
}

// Notable figure name parts, culturally diverse.
var figureFirstNames = []string{
	"Rowan", "Elena", "Theron", "Lyra", "Amara", "Kofi", "Zara", "Jabari",
	"Kenji", "Mei", "Yuki", "Sora", "Priya", "Arjun", "Kavya", "Dev",
	"Layla", "Nasir", "Farah", "Omar", "Mateo", "Lucia", "Diego", "Sofia",
	"Kaya", "Tala", "Wren", "Sage",
}

var figureSurnames = []string{
	"Blackwood", "Ironforge", "Stormborn", "Ashford", "Thornwick",
	"Okonkwo", "Diallo", "Mensah", "Tanaka", "Sharma", "Nguyen",
	"Al-Rashid", "Hakim", "Khoury", "Reyes", "Mendoza", "Vargas",
	"Whisperwind", "Sunweaver", "Moonshadow", "Frostbane",
}

var figureRoles = []string{
	"exiled cartographer", "warlord turned diplomat", "heretic astronomer",
	"guildmaster of the dockworkers", "last speaker of the old tongue",
	"oracle who refuses to prophesy", "smuggler with a conscience",
}

// Conversation seeds for assisted-mode demo sessions.
var userPrompts = []string{
	"I want a world shaped by a recent cataclysm.",
	"Give me a maritime setting with strong trade politics.",
	"Something cold and sparse, where resources drive every conflict.",
	"A lush world where the wilderness is actively hostile to settlement.",
}

var narratorReplies = []string{
	"Let's start with the bones of the place and work outward from there.",
	"Good instinct. Here is a first sketch; tell me what to sharpen.",
	"I can work with that. A few details to anchor the setting:",
}
