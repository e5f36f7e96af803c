package indexlifecycle

import "gopkg.in/yaml.v3"

func parseYAML(data string, out interface{}) error {
	return yaml.Unmarshal([]byte(data), out)
}
