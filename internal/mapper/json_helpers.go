package mapper

import (
	"encoding/json"

	"gorm.io/datatypes"
)

func toJSONArray(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(raw)
}

func fromJSONArray(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return []string{}
	}
	return values
}
