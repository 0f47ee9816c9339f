package domain

// Priorities are the backlog priorities offered by the prompt form, lowest first.
var Priorities = []string{"low", "medium", "high", "critical"}

// ItemKinds are the backlog item categories offered by the prompt form.
var ItemKinds = []string{"feature", "improvement", "maintenance", "security", "technical-debt"}

// DefaultSeeds are the starter entries written by `brainstorm seed` into empty collections.
var DefaultSeeds = map[Collection][]string{
	CollectionTechnologies: {
		"Active Directory",
		"Ansible",
		"Kubernetes",
		"Linux",
		"PostgreSQL",
		"VMware vSphere",
		"Windows Server",
	},
	CollectionTeamFunctions: {
		"Backup and Recovery",
		"Identity and Access",
		"Monitoring",
		"Networking",
		"Patch Management",
		"Security Operations",
	},
}

// IsPriority reports whether p is one of Priorities.
func IsPriority(p string) bool { return contains(Priorities, p) }

// IsItemKind reports whether k is one of ItemKinds.
func IsItemKind(k string) bool { return contains(ItemKinds, k) }

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
