package geocode

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func cityPlace(name string) Place {
	return Place{DisplayName: name, Address: Address{City: name}}
}

func TestRankingDeterminism(t *testing.T) {
	places := []Place{
		cityPlace("Tel Aviv"),
		cityPlace("Hotel"),
		cityPlace("Tel"),
	}

	got := RankSuggestions(KindCity, "tel", 5, places)
	require.Equal(t, []string{"Tel", "Tel Aviv", "Hotel"}, got)
}

func TestRankingIsCaseInsensitive(t *testing.T) {
	places := []Place{
		cityPlace("HOTEL"),
		cityPlace("TEL AVIV"),
		cityPlace("tel"),
	}

	got := RankSuggestions(KindCity, "TEL", 5, places)
	require.Equal(t, []string{"tel", "TEL AVIV", "HOTEL"}, got)
}

func TestShorterRanksFirstWithinTier(t *testing.T) {
	places := []Place{
		cityPlace("Telford Heath"),
		cityPlace("Telford"),
	}

	// Both are prefix matches; the shorter one is treated as more
	// specific.
	got := RankSuggestions(KindCity, "tel", 5, places)
	require.Equal(t, []string{"Telford", "Telford Heath"}, got)
}

func TestEqualTiesKeepFirstAppearanceOrder(t *testing.T) {
	places := []Place{
		cityPlace("Adi"),
		cityPlace("Lod"),
		cityPlace("Gan"),
	}

	// Same tier, same length: stable sort preserves provider order.
	got := RankSuggestions(KindCity, "zzz", 5, places)
	require.Equal(t, []string{"Adi", "Lod", "Gan"}, got)
}

func TestDeduplication(t *testing.T) {
	places := []Place{
		{DisplayName: "Haifa, Haifa District, Israel", Address: Address{City: "Haifa"}},
		{DisplayName: "Haifa, Israel", Address: Address{City: "Haifa"}},
	}

	got := RankSuggestions(KindCity, "haifa", 5, places)
	require.Equal(t, []string{"Haifa"}, got)
}

func TestTruncationAfterRanking(t *testing.T) {
	var places []Place
	for i := 0; i < 12; i++ {
		places = append(places, cityPlace(fmt.Sprintf("Telville %02d", i)))
	}

	got := RankSuggestions(KindCity, "tel", 5, places)
	require.Len(t, got, 5)
	require.Equal(t, "Telville 00", got[0], "truncation must keep ranked order")
	require.Equal(t, "Telville 04", got[4])
}

func TestFieldExtraction(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		p    Place
		want string
	}{
		{
			name: "street from road",
			kind: KindStreet,
			p:    Place{DisplayName: "Allenby Street, Tel Aviv, Israel", Address: Address{Road: "Allenby Street"}},
			want: "Allenby Street",
		},
		{
			name: "city falls back to town",
			kind: KindCity,
			p:    Place{DisplayName: "Zikhron Ya'akov, Israel", Address: Address{Town: "Zikhron Ya'akov"}},
			want: "Zikhron Ya'akov",
		},
		{
			name: "city falls back to village",
			kind: KindCity,
			p:    Place{DisplayName: "Amirim, Israel", Address: Address{Village: "Amirim"}},
			want: "Amirim",
		},
		{
			name: "country from address",
			kind: KindCountry,
			p:    Place{DisplayName: "Israel", Address: Address{Country: "Israel"}},
			want: "Israel",
		},
		{
			name: "missing field falls back to display name segment",
			kind: KindStreet,
			p:    Place{DisplayName: "Rothschild Boulevard, Tel Aviv"},
			want: "Rothschild Boulevard",
		},
		{
			name: "display name without commas",
			kind: KindCountry,
			p:    Place{DisplayName: "Israel"},
			want: "Israel",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, extractField(tt.kind, tt.p))
		})
	}
}

func TestEmptyRecordsAreDropped(t *testing.T) {
	places := []Place{
		{DisplayName: "   "},
		cityPlace("Haifa"),
		{},
	}

	got := RankSuggestions(KindCity, "ha", 5, places)
	require.Equal(t, []string{"Haifa"}, got)
}

func TestResolveAddress(t *testing.T) {
	require.Nil(t, ResolveAddress(nil))

	places := []Place{
		{
			DisplayName: "12, Herzl Street, Tel Aviv, Israel",
			Lat:         32.06,
			Lon:         34.77,
			Address:     Address{Road: "Herzl Street", HouseNumber: "12", City: "Tel Aviv", Country: "Israel"},
		},
		{DisplayName: "somewhere else"},
	}

	got := ResolveAddress(places)
	require.NotNil(t, got)
	require.Equal(t, 32.06, got.Lat)
	require.Equal(t, 34.77, got.Lng)
	require.Equal(t, "12, Herzl Street, Tel Aviv, Israel", got.DisplayName)
	require.Equal(t, "Herzl Street", got.Address.Road)
}
