package model

// QuickPickRegions lists the UK cities and counties offered as one-click
// region choices, major cities first.
var QuickPickRegions = []string{
	// Major cities
	"London", "Birmingham", "Manchester", "Glasgow", "Liverpool", "Bristol",
	"Leeds", "Sheffield", "Edinburgh", "Cardiff", "Belfast", "Leicester",
	"Nottingham", "Newcastle", "Southampton", "Portsmouth", "Aberdeen",
	"Swansea", "Oxford", "Cambridge", "Brighton", "Norwich", "Hull",
	"Plymouth", "Stoke-on-Trent", "Wolverhampton", "Derby", "Coventry",
	"Reading", "Milton Keynes", "York", "Bath", "Exeter", "Chester",
	"Dundee", "Gloucester", "Inverness", "Lancaster", "Lincoln", "Newport",
	"Preston", "Salisbury", "St Albans", "Sunderland", "Truro", "Wakefield",
	"Winchester", "Worcester",

	// Major counties
	"Leicestershire", "Nottinghamshire", "Kent", "Essex", "Surrey",
	"Hertfordshire", "Cornwall", "Devon", "Hampshire", "Yorkshire",
	"Lancashire", "Merseyside", "Cheshire", "Staffordshire", "Warwickshire",
	"Worcestershire", "Shropshire", "Somerset", "Dorset", "Wiltshire",
	"Berkshire", "Sussex", "Norfolk", "Suffolk", "Cumbria", "Durham",
}
