package tlv

import (
	"encoding/json"
	"fmt"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// JSON interchange with the external configuration-authoring tool. The
// document is an object keyed by decimal packet-id strings ("1" system,
// "32" display, "38" wifi_config), plus a "version" key. Repeatable
// kinds map to arrays. Key order is stable so exported documents diff
// cleanly.

func jsonKey(id byte) string {
	return strconv.Itoa(int(id))
}

// MarshalJSON exports the config as the interchange document. Sections
// that are absent are omitted rather than emitted as null.
func (c *DeviceConfig) MarshalJSON() ([]byte, error) {
	doc := orderedmap.New[string, any]()
	doc.Set("version", c.Version)
	if c.System != nil {
		doc.Set(jsonKey(IDSystem), c.System)
	}
	if c.Manufacturer != nil {
		doc.Set(jsonKey(IDManufacturer), c.Manufacturer)
	}
	if c.Power != nil {
		doc.Set(jsonKey(IDPower), c.Power)
	}
	if len(c.Displays) > 0 {
		doc.Set(jsonKey(IDDisplay), c.Displays)
	}
	if len(c.Leds) > 0 {
		doc.Set(jsonKey(IDLed), c.Leds)
	}
	if len(c.Sensors) > 0 {
		doc.Set(jsonKey(IDSensor), c.Sensors)
	}
	if len(c.DataBuses) > 0 {
		doc.Set(jsonKey(IDDataBus), c.DataBuses)
	}
	if len(c.BinaryInputs) > 0 {
		doc.Set(jsonKey(IDBinaryInput), c.BinaryInputs)
	}
	if c.Wifi != nil {
		doc.Set(jsonKey(IDWifi), c.Wifi)
	}
	return json.Marshal(doc)
}

// UnmarshalJSON imports an interchange document. The completeness rule
// of ValidateForWrite applies: an incomplete document fails here and the
// receiver is left untouched, never partially populated.
func (c *DeviceConfig) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("config document: %w", err)
	}

	var cfg DeviceConfig
	section := func(id byte, dst any) error {
		msg, ok := raw[jsonKey(id)]
		if !ok {
			return nil
		}
		if err := json.Unmarshal(msg, dst); err != nil {
			return fmt.Errorf("config document: %s section: %w", kindName(id), err)
		}
		return nil
	}

	if msg, ok := raw["version"]; ok {
		if err := json.Unmarshal(msg, &cfg.Version); err != nil {
			return fmt.Errorf("config document: version: %w", err)
		}
	}
	if err := section(IDSystem, &cfg.System); err != nil {
		return err
	}
	if err := section(IDManufacturer, &cfg.Manufacturer); err != nil {
		return err
	}
	if err := section(IDPower, &cfg.Power); err != nil {
		return err
	}
	if err := section(IDDisplay, &cfg.Displays); err != nil {
		return err
	}
	if err := section(IDLed, &cfg.Leds); err != nil {
		return err
	}
	if err := section(IDSensor, &cfg.Sensors); err != nil {
		return err
	}
	if err := section(IDDataBus, &cfg.DataBuses); err != nil {
		return err
	}
	if err := section(IDBinaryInput, &cfg.BinaryInputs); err != nil {
		return err
	}
	if err := section(IDWifi, &cfg.Wifi); err != nil {
		return err
	}

	if err := cfg.ValidateForWrite(); err != nil {
		return err
	}
	*c = cfg
	return nil
}
