package field

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hata-go/hata/internal/domain/preinstanced"
	"github.com/hata-go/hata/internal/domain/shared"
)

func TestDecode_KeepsLargeIntegers(t *testing.T) {
	data, err := Decode([]byte(`{"id": 175928847299117063, "name": "x"}`))
	require.NoError(t, err)

	id := EntityIDParser("id")(data)
	assert.Equal(t, shared.Snowflake(175928847299117063), id)

	_, err = Decode([]byte(`[1,2]`))
	assert.Error(t, err)
	_, err = Decode([]byte(`null`))
	assert.Error(t, err)
}

func TestBoolTrio(t *testing.T) {
	parse := BoolParser("enabled", true)
	put := BoolPutter("enabled", true)

	assert.True(t, parse(Data{}))
	assert.False(t, parse(Data{"enabled": false}))
	assert.True(t, parse(Data{"enabled": nil}))

	assert.Equal(t, Data{}, put(true, Data{}, false))
	assert.Equal(t, Data{"enabled": true}, put(true, Data{}, true))
	assert.Equal(t, Data{"enabled": false}, put(false, Data{}, false))
}

func TestNullableStringTrio(t *testing.T) {
	parse := NullableStringParser("url")
	put := NullableStringPutter("url")
	validate := NullableStringValidator("url", 1, 5)

	assert.Equal(t, "", parse(Data{"url": nil}))
	assert.Equal(t, "a", parse(Data{"url": "a"}))

	assert.Equal(t, Data{}, put("", Data{}, false))
	assert.Equal(t, Data{"url": nil}, put("", Data{}, true))
	assert.Equal(t, Data{"url": "a"}, put("a", Data{}, false))

	v, err := validate("")
	require.NoError(t, err)
	assert.Equal(t, "", v)

	_, err = validate("abcdef")
	require.Error(t, err)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "url", verr.Field)
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
}

func TestForceStringValidator_CountsRunes(t *testing.T) {
	validate := ForceStringValidator("name", 1, 3)

	v, err := validate("añb")
	require.NoError(t, err)
	assert.Equal(t, "añb", v)

	_, err = validate("")
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
	assert.Equal(t, Data{"name": ""}, ForceStringPutter("name")("", Data{}, false))
}

func TestIntTrio(t *testing.T) {
	parse := IntParser("duration", 24)
	put := IntPutter("duration", 24)
	validate := IntConditionalValidator("duration", 1, 768)

	assert.Equal(t, 24, parse(Data{}))
	assert.Equal(t, 12, parse(Data{"duration": json.Number("12")}))
	assert.Equal(t, 12, parse(Data{"duration": float64(12)}))

	assert.Equal(t, Data{}, put(24, Data{}, false))
	assert.Equal(t, Data{"duration": 48}, put(48, Data{}, false))

	_, err := validate(0)
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
	v, err := validate(768)
	require.NoError(t, err)
	assert.Equal(t, 768, v)

	assert.Equal(t, Data{"count": nil}, NullableIntPutter("count")(0, Data{}, true))
}

func TestEntityIDTrio(t *testing.T) {
	parse := EntityIDParser("owner_user_id")
	put := EntityIDPutter("owner_user_id")
	putOptional := EntityIDOptionalPutter("owner_user_id")
	validate := EntityIDValidator("owner_id")

	assert.Equal(t, shared.Snowflake(12), parse(Data{"owner_user_id": "12"}))
	assert.Equal(t, shared.Snowflake(0), parse(Data{"owner_user_id": "x"}))

	assert.Equal(t, Data{"owner_user_id": "12"}, put(12, Data{}, false))
	assert.Equal(t, Data{}, putOptional(0, Data{}, false))
	assert.Equal(t, Data{"owner_user_id": nil}, putOptional(0, Data{}, true))

	for _, input := range []any{shared.Snowflake(5), uint64(5), 5, int64(5), "5", identified(5)} {
		id, err := validate(input)
		require.NoError(t, err, "%T", input)
		assert.Equal(t, shared.Snowflake(5), id)
	}

	_, err := validate(-1)
	assert.ErrorIs(t, err, shared.ErrInvalidID)
	_, err = validate("five")
	assert.ErrorIs(t, err, shared.ErrInvalidID)
	_, err = validate(1.5)
	assert.ErrorIs(t, err, shared.ErrInvalidID)
}

type identified shared.Snowflake

func (i identified) EntityID() shared.Snowflake { return shared.Snowflake(i) }

func TestEntityIDArrayTrio(t *testing.T) {
	parse := EntityIDArrayParser("sku_ids")
	put := EntityIDArrayPutter("sku_ids")
	validate := EntityIDArrayValidator("sku_ids")

	assert.Equal(t, []shared.Snowflake{1, 2, 3}, parse(Data{"sku_ids": []any{"3", "1", "2", "1"}}))
	assert.Nil(t, parse(Data{"sku_ids": []any{}}))

	assert.Equal(t, Data{}, put(nil, Data{}, false))
	assert.Equal(t, Data{"sku_ids": []any{}}, put(nil, Data{}, true))
	assert.Equal(t, Data{"sku_ids": []any{"1", "2"}}, put([]shared.Snowflake{1, 2}, Data{}, false))

	ids, err := validate([]shared.Snowflake{9, 3, 9})
	require.NoError(t, err)
	assert.Equal(t, []shared.Snowflake{3, 9}, ids)

	_, err = validate([]shared.Snowflake{0})
	assert.ErrorIs(t, err, shared.ErrInvalidID)
}

func TestPreinstancedTrio(t *testing.T) {
	roles := preinstanced.NewRegistry[string]("Role")
	none := roles.Register("", "none")
	admin := roles.Register("admin", "admin")
	other := preinstanced.NewRegistry[string]("Other").Register("admin", "admin")

	parse := PreinstancedParser("role", roles, none)
	put := PreinstancedPutter("role", none)
	validate := PreinstancedValidator("role", roles)

	assert.Same(t, admin, parse(Data{"role": "admin"}))
	assert.Same(t, none, parse(Data{}))

	unknown := parse(Data{"role": "moderator"})
	assert.Equal(t, preinstanced.NameDefault, unknown.Name())
	assert.Equal(t, Data{"role": "moderator"}, put(unknown, Data{}, false))

	assert.Equal(t, Data{}, put(none, Data{}, false))
	assert.Equal(t, Data{"role": ""}, put(nil, Data{}, true))

	v, err := validate(admin)
	require.NoError(t, err)
	assert.Same(t, admin, v)

	_, err = validate(other)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	_, err = validate(nil)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestPreinstancedParser_IntValues(t *testing.T) {
	states := preinstanced.NewRegistry[int]("State")
	none := states.Register(0, "none")
	accepted := states.Register(2, "accepted")

	parse := PreinstancedParser("membership_state", states, none)
	assert.Same(t, accepted, parse(Data{"membership_state": json.Number("2")}))
	assert.Same(t, accepted, parse(Data{"membership_state": float64(2)}))
	assert.Same(t, none, parse(Data{"membership_state": "two"}))
}

type flags uint64

func TestFlagTrio(t *testing.T) {
	parse := FlagParser[flags]("flags")
	put := FlagPutter[flags]("flags")

	assert.Equal(t, flags(5), parse(Data{"flags": json.Number("5")}))
	assert.Equal(t, flags(0), parse(Data{}))
	assert.Equal(t, Data{}, put(0, Data{}, false))
	assert.Equal(t, Data{"flags": uint64(5)}, put(5, Data{}, false))
}

func TestDateTrio(t *testing.T) {
	parse := NullableDateParser("expiry")
	put := NullableDatePutter("expiry")

	at := parse(Data{"expiry": "2024-03-01T12:30:00.123456+00:00"})
	assert.Equal(t, time.Date(2024, 3, 1, 12, 30, 0, 123456000, time.UTC), at)
	assert.True(t, parse(Data{"expiry": "not a date"}).IsZero())

	assert.Equal(t, Data{"expiry": "2024-03-01T12:30:00.123456+00:00"}, put(at, Data{}, false))
	assert.Equal(t, Data{"expiry": nil}, put(time.Time{}, Data{}, true))
	assert.Equal(t, Data{}, put(time.Time{}, Data{}, false))
}

func TestIconTrio(t *testing.T) {
	parse := IconParser("icon")
	put := IconPutter("icon")

	icon := parse(Data{"icon": "a_0123456789abcdef0123456789abcdef"})
	assert.True(t, icon.IsAnimated())
	assert.True(t, parse(Data{"icon": "broken"}).IsZero())

	assert.Equal(t, Data{"icon": "a_0123456789abcdef0123456789abcdef"}, put(icon, Data{}, false))
	assert.Equal(t, Data{"icon": nil}, put(shared.Icon{}, Data{}, true))
}

type nested struct {
	Name string
}

func (n *nested) ToData(defaults, includeInternals bool) Data {
	return Data{"name": n.Name}
}

func nestedFromData(data Data) (*nested, error) {
	name, _ := data["name"].(string)
	if name == "" {
		return nil, errors.New("missing name")
	}
	return &nested{Name: name}, nil
}

func TestNestedTrio(t *testing.T) {
	parse := NestedParser("author", nestedFromData)
	put := NestedPutter[*nested]("author", true)

	value, err := parse(Data{"author": map[string]any{"name": "orin"}})
	require.NoError(t, err)
	assert.Equal(t, "orin", value.Name)

	value, err = parse(Data{})
	require.NoError(t, err)
	assert.Nil(t, value)

	_, err = parse(Data{"author": map[string]any{}})
	assert.Error(t, err)

	assert.Equal(t, Data{"author": Data{"name": "orin"}}, put(&nested{Name: "orin"}, Data{}, false, false))
	assert.Equal(t, Data{"author": nil}, put(nil, Data{}, true, false))
	assert.Equal(t, Data{}, put(nil, Data{}, false, false))
}

func TestNestedArrayTrio(t *testing.T) {
	parse := NestedArrayParser("fields", nestedFromData)
	put := NestedArrayPutter[*nested]("fields")

	values, err := parse(Data{"fields": []any{
		map[string]any{"name": "a"},
		"skipped",
		map[string]any{"name": "b"},
	}})
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, "b", values[1].Name)

	values, err = parse(Data{"fields": []any{}})
	require.NoError(t, err)
	assert.Nil(t, values)

	assert.Equal(t, Data{"fields": []any{Data{"name": "a"}}}, put([]*nested{{Name: "a"}}, Data{}, false, false))
	assert.Equal(t, Data{}, put(nil, Data{}, false, false))
	assert.Equal(t, Data{"fields": []any{}}, put(nil, Data{}, true, false))
}

func TestDiff(t *testing.T) {
	old := Data{"name": "a", "bot": false, "gone": 1}
	fresh := Data{"name": "b", "bot": false, "added": true}

	changed := Diff(old, fresh)
	assert.Equal(t, Data{"name": "a", "gone": 1, "added": nil}, changed)
	assert.Equal(t, []string{"added", "gone", "name"}, Keys(changed))
	assert.Empty(t, Diff(old, old))
}
