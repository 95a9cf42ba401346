package input

// PropertyValue is one of the source's InputSignalSupportedType set:
// float, int, uint, char, string.
type PropertyValue any

// PropertyMap holds a signal's named property values plus the `changed`
// bit, grounded on InputSignalProperties (input_system.h). Properties must
// be declared via add before Set is called — Set on an undeclared key is a
// no-op, mirroring the source's NAU_ASSERT-and-ignore behavior for release
// builds.
type PropertyMap struct {
	values  map[string]PropertyValue
	changed bool
}

func newPropertyMap() PropertyMap {
	return PropertyMap{values: make(map[string]PropertyValue)}
}

// add declares key with its initial value; only called from within a
// signal constructor.
func (p *PropertyMap) add(key string, value PropertyValue) {
	p.values[key] = value
}

// Set assigns value to an already-declared property, marking the map
// changed.
func (p *PropertyMap) Set(key string, value PropertyValue) {
	if _, ok := p.values[key]; !ok {
		return
	}
	p.values[key] = value
	p.changed = true
}

// Get retrieves a property's current value.
func (p *PropertyMap) Get(key string) (PropertyValue, bool) {
	v, ok := p.values[key]
	return v, ok
}

func (p *PropertyMap) GetString(key string) string {
	v, _ := p.values[key].(string)
	return v
}

func (p *PropertyMap) GetInt(key string) int {
	v, _ := p.values[key].(int)
	return v
}

func (p *PropertyMap) GetFloat(key string) float64 {
	v, _ := p.values[key].(float64)
	return v
}

// Changed reports whether any property was Set since the last call, and
// clears the bit — mirrors InputSignalProperties::isChanged(false).
func (p *PropertyMap) Changed() bool {
	if p.changed {
		p.changed = false
		return true
	}
	return false
}
