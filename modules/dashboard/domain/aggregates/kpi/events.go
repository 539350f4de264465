package kpi

type CreatedEvent struct {
	Result Sample
}

type UpdatedEvent struct {
	Result Sample
}

type DeletedEvent struct {
	Result Sample
}
