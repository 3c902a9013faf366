package simulation

// Event types published by a Simulation. Data carries a VehicleView or SignalView.
const (
	EventVehicleSpawned  = "vehicle.spawned"
	EventVehicleFinished = "vehicle.finished"
	EventVehicleCollided = "vehicle.collided"
	EventSignalChanged   = "signal.changed"
)

const eventSource = "simulation"
