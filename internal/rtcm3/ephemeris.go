package rtcm3

// GPSEphemeris is message 1019, unscaled as broadcast.
type GPSEphemeris struct {
	Ident    int   `json:"ident"`
	Week     int   `json:"week"`
	SVAcc    int   `json:"sv_acc"`
	CodeL2   int   `json:"code_l2"`
	IDOT     int64 `json:"idot"`
	IODE     int   `json:"iode"`
	Toc      int64 `json:"t_oc"`
	Af2      int64 `json:"a_f2"`
	Af1      int64 `json:"a_f1"`
	Af0      int64 `json:"a_f0"`
	IODC     int   `json:"iodc"`
	Crs      int64 `json:"C_rs"`
	DeltaN   int64 `json:"delta_n"`
	M0       int64 `json:"M_0"`
	Cuc      int64 `json:"C_uc"`
	E        int64 `json:"e"`
	Cus      int64 `json:"C_us"`
	SqrtA    int64 `json:"sqrt_A"`
	Toe      int64 `json:"t_oe"`
	Cic      int64 `json:"C_ic"`
	Omega0   int64 `json:"Omega_0"`
	Cis      int64 `json:"C_is"`
	I0       int64 `json:"i_0"`
	Crc      int64 `json:"C_rc"`
	Omega    int64 `json:"omega"`
	OmegaDot int64 `json:"Omega_dot"`
	TGD      int64 `json:"t_GD"`
	Health   int   `json:"sv_health"`
	L2PData  bool  `json:"p_data"`
	FitInt   bool  `json:"fit_interval"`
}

func decodeGPSEphemeris(c *cursor) *GPSEphemeris {
	return &GPSEphemeris{
		Ident:    c.i(6),
		Week:     c.i(10),
		SVAcc:    c.i(4),
		CodeL2:   c.i(2),
		IDOT:     c.s(14),
		IODE:     c.i(8),
		Toc:      c.u(16),
		Af2:      c.s(8),
		Af1:      c.s(16),
		Af0:      c.s(22),
		IODC:     c.i(10),
		Crs:      c.s(16),
		DeltaN:   c.s(16),
		M0:       c.s(32),
		Cuc:      c.s(16),
		E:        c.u(32),
		Cus:      c.s(16),
		SqrtA:    c.u(32),
		Toe:      c.u(16),
		Cic:      c.s(16),
		Omega0:   c.s(32),
		Cis:      c.s(16),
		I0:       c.s(32),
		Crc:      c.s(16),
		Omega:    c.s(32),
		OmegaDot: c.s(24),
		TGD:      c.s(8),
		Health:   c.i(6),
		L2PData:  c.b(),
		FitInt:   c.b(),
	}
}

// GLONASSEphemeris is message 1020. Signed quantities are broadcast in
// sign-magnitude form and are returned as plain signed integers.
type GLONASSEphemeris struct {
	Ident           int   `json:"ident"`
	Channel         int   `json:"channel"`
	AlmanacHealth   bool  `json:"C_n"`
	HealthAvailable bool  `json:"health_avail"`
	P1              int   `json:"P1"`
	Tk              int   `json:"t_k"`
	BnMSB           bool  `json:"msb_of_B_n"`
	P2              bool  `json:"P2"`
	Tb              int   `json:"t_b"`
	XnDot           int64 `json:"x_n_t_of_t_b_first_deriv"`
	Xn              int64 `json:"x_n_t_of_t_b"`
	XnDDot          int64 `json:"x_n_t_of_t_b_second_deriv"`
	YnDot           int64 `json:"y_n_t_of_t_b_first_deriv"`
	Yn              int64 `json:"y_n_t_of_t_b"`
	YnDDot          int64 `json:"y_n_t_of_t_b_second_deriv"`
	ZnDot           int64 `json:"z_n_t_of_t_b_first_deriv"`
	Zn              int64 `json:"z_n_t_of_t_b"`
	ZnDDot          int64 `json:"z_n_t_of_t_b_second_deriv"`
	P3              bool  `json:"P3"`
	GammaN          int64 `json:"gamma_n_of_t_b"`
	MP              int   `json:"MP"`
	MIn3            bool  `json:"Ml_n"`
	TauN            int64 `json:"tau_n_of_t_b"`
	MDeltaTau       int64 `json:"M_delta_tau_n"`
	En              int   `json:"E_n"`
	MP4             bool  `json:"MP4"`
	MFT             int   `json:"MF_T"`
	MNT             int   `json:"MN_T"`
	MM              int   `json:"MM"`
	AdditionalData  bool  `json:"additional_data"`
	NA              int   `json:"N_A"`
	TauC            int64 `json:"tau_c"`
	MN4             int   `json:"M_N_4"`
	MTauGPS         int64 `json:"M_tau_GPS"`
	MIn5            bool  `json:"M_l_n"`
}

func decodeGLONASSEphemeris(c *cursor) *GLONASSEphemeris {
	e := &GLONASSEphemeris{
		Ident:           c.i(6),
		Channel:         c.i(5),
		AlmanacHealth:   c.b(),
		HealthAvailable: c.b(),
		P1:              c.i(2),
		Tk:              c.i(12),
		BnMSB:           c.b(),
		P2:              c.b(),
		Tb:              c.i(7),
		XnDot:           c.sm(24),
		Xn:              c.sm(27),
		XnDDot:          c.sm(5),
		YnDot:           c.sm(24),
		Yn:              c.sm(27),
		YnDDot:          c.sm(5),
		ZnDot:           c.sm(24),
		Zn:              c.sm(27),
		ZnDDot:          c.sm(5),
		P3:              c.b(),
		GammaN:          c.sm(11),
		MP:              c.i(2),
		MIn3:            c.b(),
		TauN:            c.sm(22),
		MDeltaTau:       c.sm(5),
		En:              c.i(5),
		MP4:             c.b(),
		MFT:             c.i(4),
		MNT:             c.i(11),
		MM:              c.i(2),
		AdditionalData:  c.b(),
		NA:              c.i(11),
		TauC:            c.sm(32),
		MN4:             c.i(5),
		MTauGPS:         c.sm(22),
		MIn5:            c.b(),
	}
	c.skip(7)
	return e
}
