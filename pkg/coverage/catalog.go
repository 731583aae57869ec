package coverage

// SubAspect is a required facet within a topic. Coverage of a topic is a
// function of which sub-aspects are backed by facts.
type SubAspect struct {
	Key  string
	Name string
}

// TopicDefinition describes one entry of the fixed topic catalog. TopicIds are
// stable across all sessions; declaration order is the tie-break order for gap
// detection.
type TopicDefinition struct {
	Id          string
	Name        string
	Description string
	SubAspects  []SubAspect
}

// HasAspect reports whether key is a recognized sub-aspect of this topic.
func (d TopicDefinition) HasAspect(key string) bool {
	for _, a := range d.SubAspects {
		if a.Key == key {
			return true
		}
	}
	return false
}

// DefaultCatalog returns the fixed set of KT topics. Every session owns one
// TopicState per entry.
func DefaultCatalog() []TopicDefinition {
	return []TopicDefinition{
		{
			Id:          "t1",
			Name:        "System Overview",
			Description: "What the system is and why it exists",
			SubAspects: []SubAspect{
				{Key: "definition", Name: "Definition"},
				{Key: "purpose", Name: "Purpose"},
				{Key: "scope", Name: "Scope & Boundaries"},
			},
		},
		{
			Id:          "t2",
			Name:        "Architecture & Data Flow",
			Description: "Components, dependencies and how data moves",
			SubAspects: []SubAspect{
				{Key: "inputs_outputs", Name: "Inputs / Outputs"},
				{Key: "dependencies", Name: "Dependencies"},
				{Key: "monitoring_deployment", Name: "Monitoring / Deployment"},
			},
		},
		{
			Id:          "t3",
			Name:        "Operations & Reliability",
			Description: "How the system fails and how it is operated",
			SubAspects: []SubAspect{
				{Key: "failure_cases", Name: "Failure Cases"},
				{Key: "edge_cases", Name: "Edge Cases"},
				{Key: "operational_steps", Name: "Operational Steps"},
			},
		},
	}
}

// FindTopic looks a topic up by id in the catalog.
func FindTopic(catalog []TopicDefinition, topicId string) (TopicDefinition, bool) {
	for _, d := range catalog {
		if d.Id == topicId {
			return d, true
		}
	}
	return TopicDefinition{}, false
}
