package staff

type CreatedEvent struct {
	Result Member
}

type UpdatedEvent struct {
	Result Member
}

type DeletedEvent struct {
	Result Member
}
