package repository

// Models lists every GORM model, for AutoMigrate on databases without SQL migrations.
func Models() []interface{} {
	return []interface{}{&CatwayModel{}, &ReservationModel{}, &UserModel{}}
}
