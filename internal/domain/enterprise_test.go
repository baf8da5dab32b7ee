package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func body(t *testing.T, s string) map[string]json.RawMessage {
	t.Helper()
	out := map[string]json.RawMessage{}
	require.NoError(t, json.Unmarshal([]byte(s), &out))
	return out
}

const createBody = `{
	"nomEntreprise": "Sodecoton",
	"region": "Nord",
	"ville": "Garoua",
	"dateCreation": "1974-06-01",
	"secteurActivite": "Primaire",
	"sousSecteur": "Agro-industriel",
	"siteWeb": "https://www.sodecoton.cm/contact",
	"email": "info@sodecoton.cm",
	"conventions": {"respectDelaisReporting": {"conforme": true}}
}`

func TestNewEnterpriseFromTopLevelFields(t *testing.T) {
	e, err := NewEnterprise(uuid.New(), body(t, createBody), testNow)
	require.NoError(t, err)

	assert.Equal(t, "Sodecoton", e.Identification.NomEntreprise)
	assert.Equal(t, time.Date(1974, 6, 1, 0, 0, 0, 0, time.UTC), e.Identification.DateCreation)
	assert.Equal(t, "info@sodecoton.cm", e.Contact.Email)
	assert.Equal(t, "sodecoton.cm", e.Contact.Domain)
	assert.Equal(t, map[string]any{"conforme": true}, e.Conventions["respectDelaisReporting"])
}

func TestNewEnterpriseNestedIdentification(t *testing.T) {
	e, err := NewEnterprise(uuid.New(), body(t, `{
		"identification": {
			"nomEntreprise": "Cimencam", "region": "Littoral", "ville": "Douala",
			"dateCreation": "1963-01-01T00:00:00Z", "secteurActivite": "Secondaire", "sousSecteur": "BTP"
		},
		"contact": {"telephone": "+237 233 00 00 00"}
	}`), testNow)
	require.NoError(t, err)

	assert.Equal(t, "Douala", e.Identification.Ville)
	assert.Equal(t, "+237 233 00 00 00", e.Contact.Telephone)
}

func TestNewEnterpriseValidation(t *testing.T) {
	tests := map[string]string{
		"short name":    `{"nomEntreprise":"S","region":"Nord","ville":"Garoua","dateCreation":"1974-06-01","secteurActivite":"Primaire","sousSecteur":"Mines"}`,
		"bad region":    `{"nomEntreprise":"Sodecoton","region":"Paris","ville":"Garoua","dateCreation":"1974-06-01","secteurActivite":"Primaire","sousSecteur":"Mines"}`,
		"bad sector":    `{"nomEntreprise":"Sodecoton","region":"Nord","ville":"Garoua","dateCreation":"1974-06-01","secteurActivite":"Quaternaire","sousSecteur":"Mines"}`,
		"bad date":      `{"nomEntreprise":"Sodecoton","region":"Nord","ville":"Garoua","dateCreation":"juin 1974","secteurActivite":"Primaire","sousSecteur":"Mines"}`,
		"missing ville": `{"nomEntreprise":"Sodecoton","region":"Nord","dateCreation":"1974-06-01","secteurActivite":"Primaire","sousSecteur":"Mines"}`,
	}
	for name, b := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewEnterprise(uuid.New(), body(t, b), testNow)
			assert.True(t, IsKind(err, KindValidation), "got %v", err)
		})
	}
}

func TestEnterpriseNestedUpdateKeepsSiblings(t *testing.T) {
	e, err := NewEnterprise(uuid.New(), body(t, createBody), testNow)
	require.NoError(t, err)
	e.Conventions["respectDelaisReporting"] = map[string]any{"conforme": true, "commentaire": "ok"}

	update, err := BuildEnterpriseUpdate(body(t, `{
		"ville": "Maroua",
		"region": "",
		"effectifsEmployes": 1200,
		"conventions": {"respectDelaisReporting": {"conforme": false}},
		"siteWeb": "cotco.co.uk"
	}`))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"contact.siteWeb",
		"conventions.respectDelaisReporting.conforme",
		"identification.ville",
		"investissementEmploi.effectifsEmployes",
	}, update.Paths())

	later := testNow.Add(time.Hour)
	require.NoError(t, e.Apply(update, later))

	assert.Equal(t, "Maroua", e.Identification.Ville)
	assert.Equal(t, "Nord", e.Identification.Region)
	assert.Equal(t, map[string]any{"conforme": false, "commentaire": "ok"}, e.Conventions["respectDelaisReporting"])
	assert.Equal(t, float64(1200), e.InvestissementEmploi["effectifsEmployes"])
	assert.Equal(t, "cotco.co.uk", e.Contact.Domain)
	assert.Equal(t, later, e.UpdatedAt)
}

func TestEnterpriseApplyIsAtomic(t *testing.T) {
	e, err := NewEnterprise(uuid.New(), body(t, createBody), testNow)
	require.NoError(t, err)
	before := e

	err = e.Apply(EnterpriseUpdate{
		"identification.ville":    "Maroua",
		"identification.region":   "Atlantis",
		"performanceEconomique.x": 1,
	}, testNow)
	require.Error(t, err)
	assert.Equal(t, before, e)
}

func TestRegistrableDomain(t *testing.T) {
	assert.Equal(t, "example.com", RegistrableDomain("https://shop.example.com/path"))
	assert.Equal(t, "example.co.uk", RegistrableDomain("www.example.co.uk"))
	assert.Equal(t, "", RegistrableDomain("  "))
}
