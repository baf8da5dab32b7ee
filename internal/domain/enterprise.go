package domain

import (
	"encoding/json"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"
)

var Regions = []string{
	"Adamaoua", "Centre", "Est", "Extreme-Nord", "Littoral",
	"Nord", "Nord-Ouest", "Ouest", "Sud", "Sud-Ouest",
}

var Sectors = []string{"Primaire", "Secondaire", "Tertiaire"}

var SubSectors = []string{
	"Agro-industriel", "Foret-Bois", "Mines", "Petrole-Gaz",
	"Industrie manufacturiere", "BTP", "Energie", "Eau",
	"Commerce", "Transport", "Telecommunications", "Banque-Assurance",
	"Tourisme", "Sante", "Education", "Autres",
}

type Identification struct {
	NomEntreprise      string    `json:"nomEntreprise"`
	RaisonSociale      string    `json:"raisonSociale,omitempty"`
	Region             string    `json:"region"`
	Ville              string    `json:"ville"`
	DateCreation       time.Time `json:"dateCreation"`
	SecteurActivite    string    `json:"secteurActivite"`
	SousSecteur        string    `json:"sousSecteur"`
	FiliereProduction  string    `json:"filiereProduction,omitempty"`
	FormeJuridique     string    `json:"formeJuridique,omitempty"`
	NumeroContribuable string    `json:"numeroContribuable,omitempty"`
}

type Contact struct {
	Telephone string `json:"telephone,omitempty"`
	Email     string `json:"email,omitempty"`
	SiteWeb   string `json:"siteWeb,omitempty"`
	Adresse   string `json:"adresse,omitempty"`
	// Domain is the registrable domain (eTLD+1) of SiteWeb.
	Domain string `json:"domain,omitempty"`
}

// Enterprise is a monitored company. The economic sections are free-form
// documents whose nested keys are updated by dotted path.
type Enterprise struct {
	ID                       uuid.UUID      `json:"id"`
	Identification           Identification `json:"identification"`
	PerformanceEconomique    map[string]any `json:"performanceEconomique"`
	InvestissementEmploi     map[string]any `json:"investissementEmploi"`
	InnovationDigitalisation map[string]any `json:"innovationDigitalisation"`
	Conventions              map[string]any `json:"conventions"`
	Contact                  Contact        `json:"contact"`
	Description              string         `json:"description,omitempty"`
	CreatedAt                time.Time      `json:"createdAt"`
	UpdatedAt                time.Time      `json:"updatedAt"`
}

var identificationFields = []string{
	"nomEntreprise", "raisonSociale", "region", "ville", "dateCreation",
	"secteurActivite", "sousSecteur", "filiereProduction", "formeJuridique", "numeroContribuable",
}

var investmentFields = []string{
	"effectifsEmployes", "nouveauxEmploisCrees", "nouveauxInvestissementsRealises", "typesInvestissements",
}

var contactFields = []string{"telephone", "email", "siteWeb"}

// freeSections are the document-shaped sections keyed by their JSON name.
var freeSections = []string{"performanceEconomique", "investissementEmploi", "innovationDigitalisation", "conventions"}

// EnterpriseUpdate is a set of dotted paths to assign, e.g. "identification.ville".
type EnterpriseUpdate map[string]any

// Paths returns the update's paths in sorted order.
func (u EnterpriseUpdate) Paths() []string {
	paths := make([]string, 0, len(u))
	for p := range u {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// NewEnterprise builds an enterprise from a create body. Identification fields
// are read from a nested "identification" object when present, otherwise from the top level.
func NewEnterprise(id uuid.UUID, body map[string]json.RawMessage, now time.Time) (Enterprise, error) {
	e := Enterprise{
		ID:                       id,
		PerformanceEconomique:    map[string]any{},
		InvestissementEmploi:     map[string]any{},
		InnovationDigitalisation: map[string]any{},
		Conventions:              map[string]any{},
		CreatedAt:                now.UTC(),
		UpdatedAt:                now.UTC(),
	}

	idSource := body
	if raw, ok := body["identification"]; ok {
		nested := map[string]json.RawMessage{}
		if err := json.Unmarshal(raw, &nested); err != nil {
			return Enterprise{}, Validation("identification must be an object")
		}
		idSource = nested
	}
	update := EnterpriseUpdate{}
	for _, f := range identificationFields {
		if raw, ok := idSource[f]; ok {
			v, err := decodeValue(raw)
			if err != nil {
				return Enterprise{}, Validation("invalid %s", f)
			}
			update["identification."+f] = v
		}
	}
	for _, f := range []string{"nomEntreprise", "region", "ville", "dateCreation", "secteurActivite", "sousSecteur"} {
		if _, ok := update["identification."+f]; !ok {
			return Enterprise{}, Validation("%s is required", f)
		}
	}

	for _, section := range freeSections {
		if raw, ok := body[section]; ok {
			obj := map[string]any{}
			if err := json.Unmarshal(raw, &obj); err != nil {
				return Enterprise{}, Validation("%s must be an object", section)
			}
			for k, v := range obj {
				update[section+"."+k] = v
			}
		}
	}
	if _, ok := body["performanceEconomique"]; !ok {
		if raw, ok := body["chiffreAffaires"]; ok {
			v, err := decodeValue(raw)
			if err != nil {
				return Enterprise{}, Validation("invalid chiffreAffaires")
			}
			update["performanceEconomique.chiffreAffaires"] = v
		}
	}
	if err := collectContact(body, update, true); err != nil {
		return Enterprise{}, err
	}
	if raw, ok := body["description"]; ok {
		v, err := decodeValue(raw)
		if err != nil {
			return Enterprise{}, Validation("invalid description")
		}
		update["description"] = v
	}

	if err := e.Apply(update, now); err != nil {
		return Enterprise{}, err
	}
	return e, nil
}

// BuildEnterpriseUpdate flattens a partial update body into dotted paths.
// Only provided keys are included, so unspecified nested keys stay intact.
func BuildEnterpriseUpdate(body map[string]json.RawMessage) (EnterpriseUpdate, error) {
	update := EnterpriseUpdate{}
	for _, f := range identificationFields {
		if raw, ok := body[f]; ok {
			v, err := decodeValue(raw)
			if err != nil {
				return nil, Validation("invalid %s", f)
			}
			if isEmptyValue(v) {
				continue
			}
			update["identification."+f] = v
		}
	}
	if raw, ok := body["identification"]; ok {
		obj := map[string]any{}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, Validation("identification must be an object")
		}
		for k, v := range obj {
			if isEmptyValue(v) {
				continue
			}
			update["identification."+k] = v
		}
	}

	if err := collectSection(body, "performanceEconomique", update, false); err != nil {
		return nil, err
	}
	if _, ok := body["performanceEconomique"]; !ok {
		if raw, ok := body["chiffreAffaires.montant"]; ok {
			v, err := decodeValue(raw)
			if err != nil {
				return nil, Validation("invalid chiffreAffaires.montant")
			}
			update["performanceEconomique.chiffreAffaires.montant"] = v
		}
	}

	if err := collectSection(body, "investissementEmploi", update, false); err != nil {
		return nil, err
	}
	if _, ok := body["investissementEmploi"]; !ok {
		for _, f := range investmentFields {
			if raw, ok := body[f]; ok {
				v, err := decodeValue(raw)
				if err != nil {
					return nil, Validation("invalid %s", f)
				}
				update["investissementEmploi."+f] = v
			}
		}
	}

	if err := collectSection(body, "innovationDigitalisation", update, false); err != nil {
		return nil, err
	}
	if err := collectSection(body, "conventions", update, true); err != nil {
		return nil, err
	}
	if err := collectContact(body, update, false); err != nil {
		return nil, err
	}
	if raw, ok := body["description"]; ok {
		v, err := decodeValue(raw)
		if err != nil {
			return nil, Validation("invalid description")
		}
		update["description"] = v
	}
	return update, nil
}

func collectSection(body map[string]json.RawMessage, section string, update EnterpriseUpdate, expand bool) error {
	raw, ok := body[section]
	if !ok {
		return nil
	}
	obj := map[string]any{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return Validation("%s must be an object", section)
	}
	for k, v := range obj {
		if nested, isObj := v.(map[string]any); expand && isObj {
			for k2, v2 := range nested {
				update[section+"."+k+"."+k2] = v2
			}
			continue
		}
		update[section+"."+k] = v
	}
	return nil
}

func collectContact(body map[string]json.RawMessage, update EnterpriseUpdate, withAddress bool) error {
	if raw, ok := body["contact"]; ok {
		obj := map[string]any{}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return Validation("contact must be an object")
		}
		for k, v := range obj {
			update["contact."+k] = v
		}
		return nil
	}
	fields := contactFields
	if withAddress {
		fields = append(fields[:len(fields):len(fields)], "adresse")
	}
	for _, f := range fields {
		if raw, ok := body[f]; ok {
			v, err := decodeValue(raw)
			if err != nil {
				return Validation("invalid %s", f)
			}
			update["contact."+f] = v
		}
	}
	return nil
}

// Apply assigns every path of u onto the enterprise. Identification and
// contact values are validated; on error the enterprise is left untouched.
func (e *Enterprise) Apply(u EnterpriseUpdate, now time.Time) error {
	next := *e
	next.PerformanceEconomique = cloneMap(e.PerformanceEconomique)
	next.InvestissementEmploi = cloneMap(e.InvestissementEmploi)
	next.InnovationDigitalisation = cloneMap(e.InnovationDigitalisation)
	next.Conventions = cloneMap(e.Conventions)

	for _, path := range u.Paths() {
		value := u[path]
		head, rest, _ := strings.Cut(path, ".")
		var err error
		switch head {
		case "identification":
			err = next.Identification.set(rest, value)
		case "contact":
			err = next.Contact.set(rest, value)
		case "description":
			next.Description, err = stringValue("description", value)
		case "performanceEconomique":
			err = setPath(next.PerformanceEconomique, rest, value)
		case "investissementEmploi":
			err = setPath(next.InvestissementEmploi, rest, value)
		case "innovationDigitalisation":
			err = setPath(next.InnovationDigitalisation, rest, value)
		case "conventions":
			err = setPath(next.Conventions, rest, value)
		default:
			err = Validation("unknown field %q", path)
		}
		if err != nil {
			return err
		}
	}
	next.Contact.Domain = RegistrableDomain(next.Contact.SiteWeb)
	next.UpdatedAt = now.UTC()
	*e = next
	return nil
}

func (id *Identification) set(field string, value any) error {
	if field == "dateCreation" {
		s, err := stringValue(field, value)
		if err != nil {
			return err
		}
		d, err := ParseDate(s)
		if err != nil {
			return Validation("invalid dateCreation")
		}
		id.DateCreation = d
		return nil
	}
	s, err := stringValue(field, value)
	if err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	switch field {
	case "nomEntreprise":
		if n := utf8.RuneCountInString(s); n < 2 || n > 200 {
			return Validation("nomEntreprise must be between 2 and 200 characters")
		}
		id.NomEntreprise = s
	case "ville":
		if n := utf8.RuneCountInString(s); n < 2 || n > 100 {
			return Validation("ville must be between 2 and 100 characters")
		}
		id.Ville = s
	case "region":
		if !contains(Regions, s) {
			return Validation("invalid region %q", s)
		}
		id.Region = s
	case "secteurActivite":
		if !contains(Sectors, s) {
			return Validation("invalid secteurActivite %q", s)
		}
		id.SecteurActivite = s
	case "sousSecteur":
		if !contains(SubSectors, s) {
			return Validation("invalid sousSecteur %q", s)
		}
		id.SousSecteur = s
	case "raisonSociale":
		id.RaisonSociale = s
	case "filiereProduction":
		id.FiliereProduction = s
	case "formeJuridique":
		id.FormeJuridique = s
	case "numeroContribuable":
		id.NumeroContribuable = s
	default:
		return Validation("unknown field %q", "identification."+field)
	}
	return nil
}

func (c *Contact) set(field string, value any) error {
	s, err := stringValue(field, value)
	if err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	switch field {
	case "telephone":
		c.Telephone = s
	case "email":
		c.Email = s
	case "siteWeb":
		c.SiteWeb = s
	case "adresse":
		c.Adresse = s
	default:
		return Validation("unknown field %q", "contact."+field)
	}
	return nil
}

// RegistrableDomain returns the eTLD+1 of a website, or "" if it has no host.
func RegistrableDomain(site string) string {
	site = strings.TrimSpace(site)
	if site == "" {
		return ""
	}
	if !strings.Contains(site, "://") {
		site = "https://" + site
	}
	u, err := url.Parse(site)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return ""
	}
	registrable, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return registrable
}

// setPath assigns value at a dotted path inside m, creating intermediate objects.
func setPath(m map[string]any, path string, value any) error {
	if path == "" {
		return Validation("empty path")
	}
	keys := strings.Split(path, ".")
	cur := m
	for _, k := range keys[:len(keys)-1] {
		next, ok := cur[k].(map[string]any)
		if !ok {
			next = map[string]any{}
		} else {
			next = cloneMap(next)
		}
		cur[k] = next
		cur = next
	}
	cur[keys[len(keys)-1]] = value
	return nil
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func decodeValue(raw json.RawMessage) (any, error) {
	var v any
	err := json.Unmarshal(raw, &v)
	return v, err
}

func stringValue(field string, v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	default:
		return "", Validation("%s must be a string", field)
	}
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case float64:
		return t == 0
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
