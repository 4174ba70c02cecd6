package verses

import "github.com/starford/pulpitgraph/internal/models"

// themeOrder is the browsing order of the catalog.
var themeOrder = []string{
	"Comfort & Strength",
	"Faith & Trust",
	"Love & Compassion",
	"Wisdom & Guidance",
	"Hope & Peace",
}

var catalog = map[string][]models.Verse{
	"Comfort & Strength": {
		{ID: "v1", Ref: "Psalm 23:1-3", Text: "The Lord is my shepherd; I shall not want. He makes me lie down in green pastures. He leads me beside still waters. He restores my soul."},
		{ID: "v2", Ref: "Isaiah 40:31", Text: "But they who wait for the Lord shall renew their strength; they shall mount up with wings like eagles; they shall run and not be weary; they shall walk and not faint."},
		{ID: "v3", Ref: "Psalm 46:1", Text: "God is our refuge and strength, a very present help in trouble."},
		{ID: "v4", Ref: "Matthew 11:28", Text: "Come to me, all who labor and are heavy laden, and I will give you rest."},
		{ID: "v5", Ref: "2 Corinthians 12:9", Text: "My grace is sufficient for you, for my power is made perfect in weakness."},
		{ID: "v6", Ref: "Philippians 4:13", Text: "I can do all things through him who strengthens me."},
		{ID: "v7", Ref: "Psalm 121:1-2", Text: "I lift up my eyes to the hills. From where does my help come? My help comes from the Lord, who made heaven and earth."},
	},
	"Faith & Trust": {
		{ID: "v8", Ref: "Hebrews 11:1", Text: "Now faith is the assurance of things hoped for, the conviction of things not seen."},
		{ID: "v9", Ref: "Proverbs 3:5-6", Text: "Trust in the Lord with all your heart, and do not lean on your own understanding. In all your ways acknowledge him, and he will make straight your paths."},
		{ID: "v10", Ref: "Mark 11:22-24", Text: "Have faith in God. Truly, I say to you, whoever says to this mountain, 'Be taken up and thrown into the sea,' and does not doubt in his heart, but believes that what he says will come to pass, it will be done for him."},
		{ID: "v11", Ref: "Romans 10:17", Text: "So faith comes from hearing, and hearing through the word of Christ."},
		{ID: "v12", Ref: "James 1:6", Text: "But let him ask in faith, with no doubting, for the one who doubts is like a wave of the sea that is driven and tossed by the wind."},
	},
	"Love & Compassion": {
		{ID: "v13", Ref: "1 Corinthians 13:4-7", Text: "Love is patient and kind; love does not envy or boast; it is not arrogant or rude. It does not insist on its own way; it is not irritable or resentful."},
		{ID: "v14", Ref: "John 3:16", Text: "For God so loved the world, that he gave his only Son, that whoever believes in him should not perish but have eternal life."},
		{ID: "v15", Ref: "Romans 8:38-39", Text: "For I am sure that neither death nor life... nor anything else in all creation, will be able to separate us from the love of God in Christ Jesus our Lord."},
		{ID: "v16", Ref: "1 John 4:19", Text: "We love because he first loved us."},
		{ID: "v17", Ref: "1 Peter 4:8", Text: "Above all, keep loving one another earnestly, since love covers a multitude of sins."},
	},
	"Wisdom & Guidance": {
		{ID: "v18", Ref: "James 1:5", Text: "If any of you lacks wisdom, let him ask God, who gives generously to all without reproach, and it will be given him."},
		{ID: "v19", Ref: "Proverbs 1:7", Text: "The fear of the Lord is the beginning of knowledge; fools despise wisdom and instruction."},
		{ID: "v20", Ref: "Psalm 119:105", Text: "Your word is a lamp to my feet and a light to my path."},
		{ID: "v21", Ref: "Colossians 3:16", Text: "Let the word of Christ dwell in you richly, teaching and admonishing one another in all wisdom."},
		{ID: "v22", Ref: "Proverbs 16:3", Text: "Commit your work to the Lord, and your plans will be established."},
	},
	"Hope & Peace": {
		{ID: "v23", Ref: "Jeremiah 29:11", Text: "For I know the plans I have for you, declares the Lord, plans for welfare and not for evil, to give you a future and a hope."},
		{ID: "v24", Ref: "John 14:27", Text: "Peace I leave with you; my peace I give to you. Not as the world gives do I give to you. Let not your hearts be troubled, neither let them be afraid."},
		{ID: "v25", Ref: "Romans 15:13", Text: "May the God of hope fill you with all joy and peace in believing, so that by the power of the Holy Spirit you may abound in hope."},
		{ID: "v26", Ref: "Philippians 4:6-7", Text: "Do not be anxious about anything, but in everything by prayer and supplication with thanksgiving let your requests be made known to God."},
		{ID: "v27", Ref: "Psalm 34:14", Text: "Turn away from evil and do good; seek peace and pursue it."},
	},
}
