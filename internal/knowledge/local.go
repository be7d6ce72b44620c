package knowledge

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"retirebot/internal/domain"
)

// ProviderLocalResources serves senior resource directory lookups.
const ProviderLocalResources = "local_resources"

// QueryKindDirectory is the lookup kind for city/resource-type searches.
const QueryKindDirectory = "directory"

type resourceEntry struct {
	Name    string
	Phone   string
	Details string
}

// Directory answers senior resource lookups by city and resource type.
// The entries are a curated Florida snapshot; a live deployment would
// back this with the Eldercare Locator API.
type Directory struct {
	cities map[string]map[string][]resourceEntry
	zips   map[string]string
}

func NewLocalResources() *Directory {
	return &Directory{
		zips: map[string]string{
			"33101": "miami",
			"32801": "orlando",
			"33601": "tampa",
			"32202": "jacksonville",
			"33701": "st. petersburg",
		},
		cities: map[string]map[string][]resourceEntry{
			"miami": {
				"healthcare": {
					{Name: "Jackson Memorial Hospital Senior Services", Phone: "(305) 585-1111", Details: "Geriatric care, memory disorders clinic"},
					{Name: "Miami Beach Senior Health Center", Phone: "(305) 673-7000", Details: "Primary care for seniors, accepts Medicare and Medicaid"},
				},
				"housing": {
					{Name: "Robert King High Towers", Phone: "(305) 416-2080", Details: "Affordable senior housing, income-based rent"},
					{Name: "Little Havana Activities & Nutrition Centers", Phone: "(305) 858-2610", Details: "Senior housing assistance and referrals"},
				},
				"transportation": {
					{Name: "Miami-Dade Special Transportation Service", Phone: "(786) 469-5000", Details: "Door-to-door paratransit for eligible riders"},
					{Name: "Golden Passport Program", Phone: "(305) 891-3131", Details: "Free public transit for seniors 65+"},
				},
				"senior center": {
					{Name: "Southwest Social Services Senior Center", Phone: "(305) 261-6202", Details: "Meals, activities, health screenings"},
					{Name: "Stirrup Plaza Senior Center", Phone: "(305) 960-2970", Details: "Daily programs, congregate meals"},
				},
			},
			"orlando": {
				"healthcare": {
					{Name: "Orlando Health Senior Care", Phone: "(321) 841-5111", Details: "Geriatric medicine, care coordination"},
					{Name: "AdventHealth Senior Services", Phone: "(407) 303-5600", Details: "Senior wellness programs, Medicare accepted"},
				},
				"housing": {
					{Name: "Orlando Housing Authority Senior Properties", Phone: "(407) 895-3300", Details: "Subsidized senior apartments"},
					{Name: "Westminster Communities", Phone: "(407) 839-5050", Details: "Independent and assisted living"},
				},
				"transportation": {
					{Name: "LYNX ACCESS", Phone: "(407) 423-8747", Details: "Paratransit service for riders unable to use fixed routes"},
					{Name: "ITN Orlando", Phone: "(407) 836-7300", Details: "Volunteer driver rides for seniors"},
				},
				"senior center": {
					{Name: "Beardall Senior Center", Phone: "(407) 246-4440", Details: "Fitness, arts, social programs"},
					{Name: "L. Claudia Allen Senior Center", Phone: "(407) 246-4461", Details: "Meals, classes, health services"},
				},
			},
			"tampa": {
				"healthcare": {
					{Name: "Tampa General Hospital Senior Center", Phone: "(813) 844-7000", Details: "Geriatric assessment, senior primary care"},
					{Name: "Suncoast Community Health Centers", Phone: "(813) 653-6100", Details: "Sliding-scale clinic, accepts Medicaid"},
				},
				"housing": {
					{Name: "Tampa Housing Authority Senior Communities", Phone: "(813) 341-9101", Details: "Income-based senior housing"},
					{Name: "Presbyterian Villages of Tampa", Phone: "(813) 272-2286", Details: "Affordable senior apartments"},
				},
				"transportation": {
					{Name: "HART Plus", Phone: "(813) 254-4278", Details: "ADA paratransit, door-to-door service"},
					{Name: "Sunshine Line", Phone: "(813) 272-7272", Details: "Free transport to medical appointments for seniors"},
				},
				"senior center": {
					{Name: "Hyde Park Presbyterian Senior Center", Phone: "(813) 253-6001", Details: "Activities, lunches, wellness checks"},
					{Name: "Oaks Senior Center", Phone: "(813) 744-5336", Details: "Recreation, congregate dining"},
				},
			},
			"jacksonville": {
				"healthcare": {
					{Name: "Baptist AgeWell Center for Senior Health", Phone: "(904) 202-4243", Details: "Geriatric primary care, memory care clinic"},
					{Name: "UF Health Jacksonville Senior Services", Phone: "(904) 244-0411", Details: "Geriatric assessment, accepts Medicare and Medicaid"},
				},
				"housing": {
					{Name: "Jacksonville Housing Authority Senior Sites", Phone: "(904) 630-3810", Details: "Income-based senior apartments"},
					{Name: "Cathedral Towers", Phone: "(904) 798-4495", Details: "Affordable downtown senior housing"},
				},
				"transportation": {
					{Name: "JTA Connexion", Phone: "(904) 265-6999", Details: "ADA paratransit, advance reservation"},
					{Name: "ElderSource Transportation Referrals", Phone: "(904) 391-6600", Details: "Rides to medical appointments for seniors"},
				},
				"senior center": {
					{Name: "Lane Wiley Senior Center", Phone: "(904) 783-6589", Details: "Fitness, meals, social programs"},
					{Name: "Mary Singleton Senior Center", Phone: "(904) 630-0995", Details: "Daily activities, congregate dining"},
				},
			},
			"st. petersburg": {
				"healthcare": {
					{Name: "Bayfront Health Senior Services", Phone: "(727) 823-1234", Details: "Geriatric medicine, senior wellness programs"},
					{Name: "Community Health Centers of Pinellas", Phone: "(727) 824-8181", Details: "Sliding-scale clinic, accepts Medicaid"},
				},
				"housing": {
					{Name: "St. Petersburg Housing Authority Senior Communities", Phone: "(727) 323-3171", Details: "Subsidized senior apartments"},
					{Name: "Peterborough Apartments", Phone: "(727) 822-4294", Details: "Affordable housing for seniors 62+"},
				},
				"transportation": {
					{Name: "PSTA Mobility Services", Phone: "(727) 540-1800", Details: "Door-to-door paratransit for eligible riders"},
					{Name: "Neighborly Care Network Transportation", Phone: "(727) 573-9444", Details: "Rides to medical visits and senior centers"},
				},
				"senior center": {
					{Name: "Sunshine Senior Center", Phone: "(727) 893-7101", Details: "Classes, meals, health screenings"},
					{Name: "Enoch Davis Center", Phone: "(727) 893-7134", Details: "Recreation and senior support programs"},
				},
			},
		},
	}
}

func (d *Directory) Name() string { return ProviderLocalResources }

// CityForZip maps a known Florida zip code to its directory city.
func (d *Directory) CityForZip(zip string) (string, bool) {
	city, ok := d.zips[strings.TrimSpace(zip)]
	return city, ok
}

// Cities returns the covered city names, sorted.
func (d *Directory) Cities() []string {
	out := make([]string, 0, len(d.cities))
	for c := range d.cities {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (d *Directory) Lookup(ctx context.Context, q domain.KnowledgeQuery) (*domain.KnowledgeResult, error) {
	city := strings.ToLower(strings.TrimSpace(q.Params["city"]))
	if city == "" {
		if mapped, ok := d.CityForZip(q.Params["zip"]); ok {
			city = mapped
		}
	}
	byType, ok := d.cities[city]
	if !ok {
		return nil, domain.ErrNoResult
	}

	resourceType := strings.ToLower(strings.TrimSpace(q.Params["resource_type"]))
	var sb strings.Builder
	fmt.Fprintf(&sb, "Senior Resources in %s:\n", strings.Title(city))

	wrote := false
	for _, rt := range []string{"healthcare", "housing", "transportation", "senior center"} {
		if resourceType != "" && resourceType != "all" && !strings.Contains(rt, resourceType) && !strings.Contains(resourceType, rt) {
			continue
		}
		entries := byType[rt]
		if len(entries) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n%s:\n", strings.Title(rt))
		for _, e := range entries {
			fmt.Fprintf(&sb, "- %s\n  Phone: %s\n  %s\n", e.Name, e.Phone, e.Details)
		}
		wrote = true
	}
	if !wrote {
		return nil, domain.ErrNoResult
	}

	sb.WriteString("\nFor more options, call the Florida Elder Helpline: 1-800-963-5337")
	return &domain.KnowledgeResult{Provider: d.Name(), Content: sb.String()}, nil
}
