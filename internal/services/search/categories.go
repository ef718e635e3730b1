package search

// Category rotation feeding the trending/recommended/music listings. One
// random category is searched per call so repeated visits surface different
// content.
var trendingCategories = []string{
	"Movies Trending Latest",
	"Series Trending Latest",
	"Sports Highlights & News",
	"Trending songs hip hop afro beat",
	"Technology & Gadgets",
	"best songs all time",
	"Comedy Skits Global",
	"Trending Music Videos & Songs",
	"Gaming Highlights",
	"TikTok Viral Challenges & Shorts",
	"Workout & Fitness Vlogs",
	"Pranks & Public Reactions",
	"Top 10 Countdown Videos",
	"Unboxing & Product Reviews",
	"Classic cars electric models",
}

var musicCategories = []string{
	"Trending Music Videos & Songs",
	"Latest Hits",
	"Afrobeats",
	"reggae",
	"drill music",
	"best songs all time",
	"love songs",
	"Hip Hop",
	"Pop Music",
	"Amapiano",
}
