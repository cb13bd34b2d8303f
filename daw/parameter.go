package daw

// DeviceParameter mirrors the real object's name, value, min, max, and
// default_value — the "last-touched device parameter" spec.md's Focus
// subsystem tracks.
type DeviceParameter struct {
	ID     string
	client Client
	ref    ref
}

func newDeviceParameter(client Client, id string) *DeviceParameter {
	return &DeviceParameter{ID: id, client: client, ref: ref{client: client, path: "device_parameter/" + id}}
}

func (p *DeviceParameter) Name() Property[string]         { return newProperty[string](p.ref, "name") }
func (p *DeviceParameter) Value() Property[float64]       { return newProperty[float64](p.ref, "value") }
func (p *DeviceParameter) Min() Property[float64]         { return newProperty[float64](p.ref, "min") }
func (p *DeviceParameter) Max() Property[float64]         { return newProperty[float64](p.ref, "max") }
func (p *DeviceParameter) DefaultValue() Property[float64] {
	return newProperty[float64](p.ref, "default_value")
}
