package domain

type DebugRecommendation struct {
	GroupBuyID    uint64       `json:"group_buy_id"`
	Source        SignalSource `json:"source"`
	Collaborative float64      `json:"collaborative"`       // cluster-mates' join affinity, 0-1
	CollabItem    float64      `json:"collaborative_item"`  // part from joins of this item
	CollabCat     float64      `json:"collaborative_cat"`   // part from joins of its category
	Content       float64      `json:"content"`             // max cosine to the user's joined items
	ContentKnown  bool         `json:"content_known"`       // false when either side has no embedding
	Urgency       float64      `json:"urgency"`             // deadline proximity + MOQ progress
	ZoneBoost     float64      `json:"zone_boost"`          // 1 when zones match
	FinalScore    float64      `json:"final_score"`         // weighted blend
	ClusterID     int          `json:"cluster_id"`          // -1 when unassigned
	Reasons       []string     `json:"reasons"`
	ArtifactVer   string       `json:"artifact_version,omitempty"`
}
