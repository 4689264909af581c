package manifest

// Category is one of the four manifest lists.
type Category string

const (
	Images    Category = "images"
	Particles Category = "particles"
	Audio     Category = "audio"
	Videos    Category = "videos"
)

// Categories returns every category in canonical output order.
func Categories() []Category {
	return []Category{Images, Particles, Audio, Videos}
}

// ParseCategory maps a list name to its Category.
func ParseCategory(name string) (Category, bool) {
	for _, c := range Categories() {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}

func (c Category) String() string { return string(c) }
