package extraction

import "github.com/debanirmalya/hirebuddy/internal/models"

// Merge combines model and heuristic results field by field. A non-empty
// model value always wins with its own confidence. Otherwise a non-empty
// heuristic value is used at heuristicConf. Fields empty in both are left
// out. Present fields still lacking a confidence get defaultConf.
func Merge(modelFields map[string]any, modelConf map[string]float64, heuristic map[string]any, heuristicConf, defaultConf float64) (map[string]any, map[string]float64) {
	fields := map[string]any{}
	conf := map[string]float64{}

	for _, k := range models.ResumeFields() {
		if v, ok := modelFields[k]; ok && !isEmpty(v) {
			fields[k] = v
			if c, ok := modelConf[k]; ok {
				conf[k] = c
			}
			continue
		}
		if v, ok := heuristic[k]; ok && !isEmpty(v) {
			fields[k] = v
			conf[k] = heuristicConf
		}
	}

	for k := range fields {
		if _, ok := conf[k]; !ok {
			conf[k] = defaultConf
		}
	}
	return fields, conf
}
