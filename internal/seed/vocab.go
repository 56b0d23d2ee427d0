package seed

var (
	firstNames = []string{
		"Ada", "Grace", "Linus", "Margaret", "Ken", "Barbara", "Dennis", "Frances",
		"Guido", "Radia", "Rob", "Hedy", "Bjarne", "Anita", "Yukihiro", "Sophie",
		"James", "Katherine", "Rasmus", "Shafi", "Brendan", "Lynn", "Anders", "Joan",
	}
	lastNames = []string{
		"Lovelace", "Hopper", "Torvalds", "Hamilton", "Thompson", "Liskov", "Ritchie",
		"Allen", "Rossum", "Perlman", "Pike", "Lamarr", "Stroustrup", "Borg", "Matsumoto",
		"Wilson", "Gosling", "Johnson", "Lerdorf", "Goldwasser", "Eich", "Conway", "Hejlsberg", "Clarke",
	}
	locations = []string{
		"Berlin", "Lagos", "Bangalore", "São Paulo", "Toronto", "Tokyo", "Nairobi",
		"Warsaw", "Lisbon", "Austin", "Seoul", "Melbourne",
	}
	skills = []string{
		"Go", "Rust", "TypeScript", "JavaScript", "Python", "React", "Kubernetes",
		"PostgreSQL", "Docker", "GraphQL", "C++", "Java", "Kotlin", "Swift", "Terraform",
	}
	interests = []string{
		"databases", "compilers", "web", "devtools", "machine learning", "security",
		"observability", "distributed systems", "education", "accessibility",
	}
	bios = []string{
		"Maintainer of small but mighty CLI tools.",
		"Building accessible React components for everyone.",
		"Distributed systems nerd, occasional kernel hacker.",
		"Loves compilers, type systems and good documentation.",
		"Full-stack developer contributing to open data projects.",
		"",
	}

	projectPrefixes = []string{"open", "hyper", "tiny", "fast", "cloud", "quantum", "swift", "green", "micro", "meta"}
	projectSuffixes = []string{"db", "kit", "flow", "stack", "mesh", "forge", "lens", "graph", "hub", "craft"}
	owners          = []string{"opencollab", "devguild", "oss-lab", "makers-org", "civic-tech", "learnhub"}
	languages       = []string{"Go", "Rust", "TypeScript", "JavaScript", "Python", "C++", "Java", "Kotlin", "Shell", "HTML"}
	topics          = []string{
		"cli", "database", "react", "kubernetes", "machine-learning", "web", "security",
		"testing", "devops", "education", "accessibility", "api",
	}
	descriptions = []string{
		"A %s toolkit for building %s applications.",
		"Lightweight %s library focused on %s.",
		"Community-driven %s platform for %s.",
	}
	tagKinds = []string{"GSoC", "Hacktoberfest", "LFX", "Outreachy"}
)
