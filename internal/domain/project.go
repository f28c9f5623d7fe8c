package domain

// View rebuilds the nested projection from the relational decomposition:
// diameters keyed by unit, approaches in row order.
func (r NormalizedRecord) View() AsteroidView {
	view := AsteroidView{
		ID:                r.Asteroid.ID,
		NeoReferenceID:    r.Asteroid.NeoReferenceID,
		Name:              r.Asteroid.Name,
		NasaJplURL:        r.Asteroid.NasaJplURL,
		AbsoluteMagnitude: r.Asteroid.AbsoluteMagnitude,
		Hazardous:         r.Asteroid.Hazardous,
		Sentry:            r.Asteroid.Sentry,
		Diameters:         make(map[string]DiameterRange, len(r.Diameters)),
		Approaches:        make([]ApproachView, 0, len(r.Approaches)),
		IngestedAt:        r.Asteroid.IngestedAt,
	}

	for _, d := range r.Diameters {
		view.Diameters[d.Unit] = DiameterRange{Min: d.Min, Max: d.Max}
	}
	for _, a := range r.Approaches {
		view.Approaches = append(view.Approaches, a.view())
	}
	return view
}

func (a CloseApproach) view() ApproachView {
	return ApproachView{
		Date:     a.Date,
		DateFull: a.DateFull,
		Epoch:    a.Epoch,
		Velocity: VelocityView{
			KmS: a.VelocityKmS,
			KmH: a.VelocityKmH,
			Mph: a.VelocityMph,
		},
		MissDistance: MissDistanceView{
			Au:    a.MissAu,
			Lunar: a.MissLunar,
			Km:    a.MissKm,
			Mi:    a.MissMi,
		},
		OrbitingBody: a.OrbitingBody,
	}
}

// Summary flattens the record into the single-approach projection. Only the
// first close-approach entry is considered primary; records without any
// approach leave those fields unset. The full decomposition keeps every
// entry regardless.
func (r NormalizedRecord) Summary() Summary {
	s := Summary{
		ID:                r.Asteroid.ID,
		Name:              r.Asteroid.Name,
		NasaJplURL:        r.Asteroid.NasaJplURL,
		AbsoluteMagnitude: r.Asteroid.AbsoluteMagnitude,
		Hazardous:         r.Asteroid.Hazardous,
		Sentry:            r.Asteroid.Sentry,
	}

	for _, d := range r.Diameters {
		switch d.Unit {
		case UnitKilometers:
			s.DiameterKmMin, s.DiameterKmMax = d.Min, d.Max
		case UnitMeters:
			s.DiameterMMin, s.DiameterMMax = d.Min, d.Max
		case UnitMiles:
			s.DiameterMiMin, s.DiameterMiMax = d.Min, d.Max
		case UnitFeet:
			s.DiameterFtMin, s.DiameterFtMax = d.Min, d.Max
		}
	}

	if len(r.Approaches) == 0 {
		return s
	}

	first := r.Approaches[0]
	s.CloseApproachDate = &first.Date
	s.CloseApproachDateFull = &first.DateFull
	s.Epoch = &first.Epoch
	s.VelocityKmS = &first.VelocityKmS
	s.VelocityKmH = &first.VelocityKmH
	s.VelocityMph = &first.VelocityMph
	s.MissAu = &first.MissAu
	s.MissLunar = &first.MissLunar
	s.MissKm = &first.MissKm
	s.MissMi = &first.MissMi
	s.OrbitingBody = &first.OrbitingBody
	return s
}
